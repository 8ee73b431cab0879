// Package artifact encodes season graphs, transitions and run summaries in
// the formats consumed by the visualization layer, and writes them to disk.
package artifact

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/okian/squadgraph/internal/domain/graph"
	"github.com/okian/squadgraph/internal/domain/model"
)

const (
	edgePrefix = "EDGE "
	nodePrefix = "NODE "
	separator  = "|"
)

// WriteGraph writes g as one EDGE line per partnership in canonical order:
//
//	EDGE player1 | player2 | weight | matches1 | matches2
//
// followed by a NODE line for each player without partners so the file
// reconstructs the graph exactly.
func WriteGraph(w io.Writer, g *graph.SeasonGraph) error {
	nodes := g.Nodes()
	for _, n := range nodes {
		if err := checkName(n.Name); err != nil {
			return err
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Season graph %s %s\n", g.Club(), g.Season().Label())
	fmt.Fprintf(bw, "# Nodes: %d\n", g.NodeCount())
	fmt.Fprintf(bw, "# Edges: %d\n\n", g.EdgeCount())
	fmt.Fprintf(bw, "# Format: EDGE player1 | player2 | weight | matches1 | matches2\n")
	fmt.Fprintf(bw, "#         NODE player | matches (players without partners)\n\n")

	matches := make(map[string]int, len(nodes))
	for _, n := range nodes {
		matches[n.Name] = n.Matches
	}
	partnered := make(map[string]bool, len(nodes))
	for _, e := range g.Edges() {
		fmt.Fprintf(bw, "%s%s | %s | %d | %d | %d\n", edgePrefix, e.A, e.B, e.Weight, matches[e.A], matches[e.B])
		partnered[e.A], partnered[e.B] = true, true
	}
	for _, n := range nodes {
		if !partnered[n.Name] {
			fmt.Fprintf(bw, "%s%s | %d\n", nodePrefix, n.Name, n.Matches)
		}
	}
	return errors.Wrap(bw.Flush(), "flush graph")
}

// checkName rejects names that would not survive a write and read.
func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, separator+"\r\n") || strings.TrimSpace(name) != name {
		return errors.Wrapf(ErrUnsafeName, "%q", name)
	}
	return nil
}

// ReadGraph parses a graph artifact for unit. Blank lines, comments and
// lines with an unknown prefix are ignored.
func ReadGraph(r io.Reader, unit model.Unit) (*graph.SeasonGraph, error) {
	nodes := make(map[string]int)
	edges := make(map[model.Pair]int)

	setMatches := func(lineNo int, name string, matches int) error {
		if prev, ok := nodes[name]; ok && prev != matches {
			return errors.Wrapf(ErrMalformedLine, "line %d: %q has %d and %d matches", lineNo, name, prev, matches)
		}
		nodes[name] = matches
		return nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, edgePrefix):
			f, err := fields(line[len(edgePrefix):], 5, lineNo)
			if err != nil {
				return nil, err
			}
			nums, err := ints(f[2:], lineNo)
			if err != nil {
				return nil, err
			}
			p, err := model.NewPair(f[0], f[1])
			if err != nil {
				return nil, errors.Wrapf(ErrMalformedLine, "line %d: %v", lineNo, err)
			}
			if _, dup := edges[p]; dup {
				return nil, errors.Wrapf(ErrMalformedLine, "line %d: duplicate edge %s", lineNo, p)
			}
			edges[p] = nums[0]
			if err := setMatches(lineNo, f[0], nums[1]); err != nil {
				return nil, err
			}
			if err := setMatches(lineNo, f[1], nums[2]); err != nil {
				return nil, err
			}
		case strings.HasPrefix(line, nodePrefix):
			f, err := fields(line[len(nodePrefix):], 2, lineNo)
			if err != nil {
				return nil, err
			}
			nums, err := ints(f[1:], lineNo)
			if err != nil {
				return nil, err
			}
			if err := setMatches(lineNo, f[0], nums[0]); err != nil {
				return nil, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "scan graph")
	}

	g, err := graph.New(unit, nodes, edges)
	if err != nil {
		return nil, errors.Wrapf(err, "graph %s", unit)
	}
	return g, nil
}

func fields(s string, want, lineNo int) ([]string, error) {
	parts := strings.Split(s, separator)
	if len(parts) != want {
		return nil, errors.Wrapf(ErrMalformedLine, "line %d: %d fields, want %d", lineNo, len(parts), want)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return nil, errors.Wrapf(ErrMalformedLine, "line %d: empty field %d", lineNo, i+1)
		}
	}
	return parts, nil
}

func ints(fs []string, lineNo int) ([]int, error) {
	out := make([]int, len(fs))
	for i, f := range fs {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedLine, "line %d: %q is not an integer", lineNo, f)
		}
		out[i] = n
	}
	return out, nil
}
