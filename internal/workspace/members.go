package workspace

import (
	"strings"

	"github.com/navid-m/liger/internal/lsptypes"
)

// FindMember looks up a member (method, property, or ivar) declared
// directly on a type, by its fully-qualified container name, following
// included/extended modules and a superclass chain one level at a time
// when the member isn't found directly (spec.md §4.G's member-lookup
// fallback used by goto-definition and hover).
func (idx *Index) FindMember(container, member string) (Entry, bool) {
	visited := map[string]bool{}
	return idx.findMember(container, member, visited)
}

func (idx *Index) findMember(container, member string, visited map[string]bool) (Entry, bool) {
	if visited[container] {
		return Entry{}, false
	}
	visited[container] = true

	containerEntry, direct := idx.containerSnapshot(container)
	for _, e := range direct {
		if e.Name == member {
			return e, true
		}
	}
	if containerEntry == nil || containerEntry.Super == "" {
		return Entry{}, false
	}
	for _, parent := range strings.Split(containerEntry.Super, ",") {
		if e, ok := idx.findMember(strings.TrimSpace(parent), member, visited); ok {
			return e, true
		}
	}
	return Entry{}, false
}

// containerSnapshot copies out the container's own entry (if any) and its
// direct children under a single read lock, so callers can recurse without
// holding the lock across the call.
func (idx *Index) containerSnapshot(container string) (*Entry, []Entry) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var containerEntry *Entry
	var direct []Entry
	for _, es := range idx.workspaceCache {
		for _, e := range es {
			if e.FQN == container && e.Kind.isContainer() {
				ce := e
				containerEntry = &ce
			}
			if strings.HasPrefix(e.FQN, container+"::") && !strings.Contains(strings.TrimPrefix(e.FQN, container+"::"), "::") {
				direct = append(direct, e)
			}
		}
	}
	return containerEntry, direct
}

// FindPropertyDefinition finds a property/getter/setter or ivar declared
// in the given container.
func (idx *Index) FindPropertyDefinition(container, name string) (Entry, bool) {
	e, ok := idx.FindMember(container, name)
	if !ok || (e.Kind != SymProperty && e.Kind != SymIVar) {
		return Entry{}, false
	}
	return e, true
}

// FindMethodDefinition finds a def/fun declared in the given container.
func (idx *Index) FindMethodDefinition(container, name string) (Entry, bool) {
	e, ok := idx.FindMember(container, name)
	if !ok || (e.Kind != SymDef && e.Kind != SymFun) {
		return Entry{}, false
	}
	return e, true
}

// members collects every entry directly nested one level under a
// container's FQN, without walking the superclass chain.
func (idx *Index) members(container string) []Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []Entry
	for _, es := range idx.workspaceCache {
		for _, e := range es {
			rest := strings.TrimPrefix(e.FQN, container+"::")
			if rest != e.FQN && !strings.Contains(rest, "::") {
				out = append(out, e)
			}
		}
	}
	return out
}

// GetClassMembers returns the def/property/ivar/constant members declared
// directly on a class.
func (idx *Index) GetClassMembers(className string) []Entry {
	return filterKinds(idx.members(className), SymDef, SymProperty, SymIVar, SymConst)
}

// GetStructMembers mirrors GetClassMembers for struct containers.
func (idx *Index) GetStructMembers(structName string) []Entry {
	return filterKinds(idx.members(structName), SymDef, SymProperty, SymIVar, SymConst)
}

// GetEnumValues returns an enum's member constants in declaration order is
// not guaranteed across map iteration, so callers that need document order
// should prefer the per-file AST walk in internal/syntax instead; this is
// for cross-file enum lookups where only the name set matters.
func (idx *Index) GetEnumValues(enumName string) []string {
	members := filterKinds(idx.members(enumName), SymConst)
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name)
	}
	return names
}

func filterKinds(entries []Entry, kinds ...SymbolKind) []Entry {
	want := make(map[SymbolKind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	var out []Entry
	for _, e := range entries {
		if want[e.Kind] {
			out = append(out, e)
		}
	}
	return out
}

// GetCompletionsForReceiver returns completion items for "receiver.", given
// the receiver's already-resolved type name. Resolving a local variable's
// type from its initializer is the semantic analyzer's job (it has the
// file's AST); this only knows how to list a known type's members.
func (idx *Index) GetCompletionsForReceiver(typeName string) []lsptypes.CompletionItem {
	members := idx.GetClassMembers(typeName)
	if len(members) == 0 {
		members = idx.GetStructMembers(typeName)
	}
	items := make([]lsptypes.CompletionItem, 0, len(members))
	for _, m := range members {
		items = append(items, lsptypes.CompletionItem{
			Label:  m.Name,
			Kind:   completionKindFor(m.Kind),
			Detail: m.Detail,
		})
	}
	return items
}

func completionKindFor(k SymbolKind) int {
	switch k {
	case SymDef, SymFun:
		return lsptypes.CIKMethod
	case SymProperty:
		return lsptypes.CIKProperty
	case SymIVar:
		return lsptypes.CIKField
	case SymConst:
		return lsptypes.CIKConstant
	default:
		return lsptypes.CIKText
	}
}
