// Package diagnostics renders operational views of a running host that are
// awkward to read out of logs: which actors a signed module is permitted to
// call, laid out as a graph instead of a flat claim list.
package diagnostics

import (
	"fmt"

	"github.com/awalterschulze/gographviz"

	"github.com/tea-actorx/actorx-go/actorx"
)

// CapabilityGraph renders the access claims of every WASM entry as a
// directed DOT graph: one node per actor id, one edge per
// ClaimActorAccess claim pointing from the claiming module to the actor it
// may invoke. Native actors appear as nodes (they can be call targets) but
// never as edge sources, since only signed modules carry claims.
func CapabilityGraph(entries []*actorx.Entry) (string, error) {
	graph := gographviz.NewGraph()
	if err := graph.SetName("capabilities"); err != nil {
		return "", fmt.Errorf("diagnostics: set graph name: %w", err)
	}
	if err := graph.SetDir(true); err != nil {
		return "", fmt.Errorf("diagnostics: set graph directed: %w", err)
	}

	seen := map[string]bool{}
	ensureNode := func(id actorx.ActorId, kind actorx.ActorKind) error {
		name := nodeName(id)
		if seen[name] {
			return nil
		}
		seen[name] = true
		attrs := map[string]string{"label": quote(id.String())}
		if kind == actorx.KindWasm {
			attrs["shape"] = "box"
		}
		return graph.AddNode("capabilities", name, attrs)
	}

	for _, entry := range entries {
		if err := ensureNode(entry.Id, entry.Kind); err != nil {
			return "", fmt.Errorf("diagnostics: add node %s: %w", entry.Id, err)
		}
	}
	for _, entry := range entries {
		if entry.Kind != actorx.KindWasm {
			continue
		}
		for _, claim := range entry.Metadata.Claims {
			if claim.Kind != actorx.ClaimActorAccess {
				continue
			}
			if err := ensureNode(claim.Access, actorx.KindNative); err != nil {
				return "", fmt.Errorf("diagnostics: add implied node %s: %w", claim.Access, err)
			}
			if err := graph.AddEdge(nodeName(entry.Id), nodeName(claim.Access), true, nil); err != nil {
				return "", fmt.Errorf("diagnostics: add edge %s -> %s: %w", entry.Id, claim.Access, err)
			}
		}
	}

	return graph.String(), nil
}

func nodeName(id actorx.ActorId) string {
	return quote(id.String())
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}
