// Package location holds the static district → taluka → village table used to
// locate a farmer.
//
// The table is built once from an embedded YAML document and is read-only
// afterwards, so a *Hierarchy can be shared by any number of goroutines.
// Callers only see query methods; the indexed representation is private.
package location

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed data/locations.yaml
var defaultTable []byte

// Kind identifies one of the three administrative levels.
type Kind int

const (
	KindRegion Kind = iota
	KindSubRegion
	KindSettlement
)

func (k Kind) String() string {
	switch k {
	case KindRegion:
		return "region"
	case KindSubRegion:
		return "subregion"
	case KindSettlement:
		return "settlement"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Entry is a selectable node: a stable key and its label in the hierarchy's
// display language.
type Entry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Path is a full or partial key path. Only the keys up to the requested
// level are consulted.
type Path struct {
	Region     string `json:"region"`
	SubRegion  string `json:"subRegion"`
	Settlement string `json:"settlement"`
}

var (
	ErrUnknownLocation = errors.New("unknown location")
	ErrInvalidTable    = errors.New("invalid location table")
)

// supported lists the label languages carried by the table. English must
// stay first: it is the fallback for every lookup.
var supported = []language.Tag{language.English, language.MustParse("mr")}

var matcher = language.NewMatcher(supported)

type node struct {
	key    string
	labels map[string]string
}

type subRegion struct {
	node
	settlements []node
	index       map[string]int
}

type region struct {
	node
	subs  []subRegion
	index map[string]int
}

// Hierarchy is an immutable, indexed location table bound to one display
// language.
type Hierarchy struct {
	lang    string
	regions []region
	index   map[string]int
}

type yamlNode struct {
	Key         string            `yaml:"key"`
	Labels      map[string]string `yaml:"labels"`
	SubRegions  []yamlNode        `yaml:"subregions"`
	Settlements []yamlNode        `yaml:"settlements"`
}

type yamlTable struct {
	Regions []yamlNode `yaml:"regions"`
}

// Load builds the hierarchy from the embedded table. lang is a BCP 47 tag
// or Accept-Language style list; unsupported languages fall back to English.
func Load(lang string) (*Hierarchy, error) {
	return Parse(defaultTable, lang)
}

// MustLoad is Load for program start-up, where a broken embedded table is a
// build defect.
func MustLoad(lang string) *Hierarchy {
	h, err := Load(lang)
	if err != nil {
		panic(err)
	}
	return h
}

// Parse builds a hierarchy from a YAML table.
func Parse(data []byte, lang string) (*Hierarchy, error) {
	var t yamlTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if len(t.Regions) == 0 {
		return nil, fmt.Errorf("%w: no regions", ErrInvalidTable)
	}

	h := &Hierarchy{
		lang:    matchLanguage(lang),
		regions: make([]region, 0, len(t.Regions)),
		index:   make(map[string]int, len(t.Regions)),
	}
	for _, yr := range t.Regions {
		rn, err := newNode(yr, "")
		if err != nil {
			return nil, err
		}
		if _, dup := h.index[rn.key]; dup {
			return nil, fmt.Errorf("%w: duplicate region %q", ErrInvalidTable, rn.key)
		}
		r := region{node: rn, index: make(map[string]int, len(yr.SubRegions))}
		for _, ys := range yr.SubRegions {
			sn, err := newNode(ys, rn.key+"/")
			if err != nil {
				return nil, err
			}
			if _, dup := r.index[sn.key]; dup {
				return nil, fmt.Errorf("%w: duplicate sub-region %s/%s", ErrInvalidTable, rn.key, sn.key)
			}
			s := subRegion{node: sn, index: make(map[string]int, len(ys.Settlements))}
			for _, yv := range ys.Settlements {
				vn, err := newNode(yv, rn.key+"/"+sn.key+"/")
				if err != nil {
					return nil, err
				}
				if _, dup := s.index[vn.key]; dup {
					return nil, fmt.Errorf("%w: duplicate settlement %s/%s/%s", ErrInvalidTable, rn.key, sn.key, vn.key)
				}
				s.index[vn.key] = len(s.settlements)
				s.settlements = append(s.settlements, vn)
			}
			r.index[sn.key] = len(r.subs)
			r.subs = append(r.subs, s)
		}
		h.index[rn.key] = len(h.regions)
		h.regions = append(h.regions, r)
	}
	return h, nil
}

func newNode(y yamlNode, prefix string) (node, error) {
	key := strings.TrimSpace(y.Key)
	if key == "" {
		return node{}, fmt.Errorf("%w: empty key under %q", ErrInvalidTable, prefix)
	}
	if strings.TrimSpace(y.Labels["en"]) == "" {
		return node{}, fmt.Errorf("%w: %s%s has no en label", ErrInvalidTable, prefix, key)
	}
	return node{key: key, labels: y.Labels}, nil
}

func matchLanguage(lang string) string {
	_, idx := language.MatchStrings(matcher, lang)
	base, _ := supported[idx].Base()
	return base.String()
}

// Language returns the display language the hierarchy resolved to.
func (h *Hierarchy) Language() string { return h.lang }

func (h *Hierarchy) label(n node) string {
	if l := n.labels[h.lang]; l != "" {
		return l
	}
	if l := n.labels["en"]; l != "" {
		return l
	}
	return n.key
}

func (h *Hierarchy) entries(nodes []node) []Entry {
	out := make([]Entry, len(nodes))
	for i, n := range nodes {
		out[i] = Entry{Key: n.key, Label: h.label(n)}
	}
	return out
}

func (h *Hierarchy) region(key string) (*region, bool) {
	i, ok := h.index[key]
	if !ok {
		return nil, false
	}
	return &h.regions[i], true
}

func (h *Hierarchy) subRegion(regionKey, subKey string) (*subRegion, bool) {
	r, ok := h.region(regionKey)
	if !ok {
		return nil, false
	}
	i, ok := r.index[subKey]
	if !ok {
		return nil, false
	}
	return &r.subs[i], true
}

// Regions returns every region in declaration order.
func (h *Hierarchy) Regions() []Entry {
	out := make([]Entry, len(h.regions))
	for i, r := range h.regions {
		out[i] = Entry{Key: r.key, Label: h.label(r.node)}
	}
	return out
}

// SubRegions returns the children of regionKey, or an empty slice when the
// key is unknown.
func (h *Hierarchy) SubRegions(regionKey string) []Entry {
	r, ok := h.region(regionKey)
	if !ok {
		return []Entry{}
	}
	out := make([]Entry, len(r.subs))
	for i, s := range r.subs {
		out[i] = Entry{Key: s.key, Label: h.label(s.node)}
	}
	return out
}

// Settlements returns the villages reachable through the exact
// (regionKey, subRegionKey) pair, or an empty slice.
func (h *Hierarchy) Settlements(regionKey, subRegionKey string) []Entry {
	s, ok := h.subRegion(regionKey, subRegionKey)
	if !ok {
		return []Entry{}
	}
	return h.entries(s.settlements)
}

// ResolveLabel returns the display label of the node of the given kind on
// path p. A key that cannot be resolved is returned unchanged so stale or
// foreign keys still render as something visible.
func (h *Hierarchy) ResolveLabel(kind Kind, p Path) string {
	switch kind {
	case KindRegion:
		if r, ok := h.region(p.Region); ok {
			return h.label(r.node)
		}
		return p.Region
	case KindSubRegion:
		if s, ok := h.subRegion(p.Region, p.SubRegion); ok {
			return h.label(s.node)
		}
		return p.SubRegion
	case KindSettlement:
		if s, ok := h.subRegion(p.Region, p.SubRegion); ok {
			if i, ok := s.index[p.Settlement]; ok {
				return h.label(s.settlements[i])
			}
		}
		return p.Settlement
	}
	return ""
}

// FindKey maps a key or a label (in any supported language, case-insensitive)
// to the stable key of a node of the given kind under p's parents.
func (h *Hierarchy) FindKey(kind Kind, p Path, keyOrLabel string) (string, bool) {
	want := strings.TrimSpace(keyOrLabel)
	if want == "" {
		return "", false
	}
	var candidates []node
	switch kind {
	case KindRegion:
		for _, r := range h.regions {
			candidates = append(candidates, r.node)
		}
	case KindSubRegion:
		r, ok := h.region(p.Region)
		if !ok {
			return "", false
		}
		for _, s := range r.subs {
			candidates = append(candidates, s.node)
		}
	case KindSettlement:
		s, ok := h.subRegion(p.Region, p.SubRegion)
		if !ok {
			return "", false
		}
		candidates = s.settlements
	}
	for _, n := range candidates {
		if n.key == want {
			return n.key, true
		}
	}
	for _, n := range candidates {
		for _, l := range n.labels {
			if strings.EqualFold(strings.TrimSpace(l), want) {
				return n.key, true
			}
		}
	}
	return "", false
}

// Validate reports whether p names an existing settlement with a valid
// parent chain.
func (h *Hierarchy) Validate(p Path) error {
	if _, ok := h.region(p.Region); !ok {
		return fmt.Errorf("%w: region %q", ErrUnknownLocation, p.Region)
	}
	s, ok := h.subRegion(p.Region, p.SubRegion)
	if !ok {
		return fmt.Errorf("%w: sub-region %q in %q", ErrUnknownLocation, p.SubRegion, p.Region)
	}
	if _, ok := s.index[p.Settlement]; !ok {
		return fmt.Errorf("%w: settlement %q in %s/%s", ErrUnknownLocation, p.Settlement, p.Region, p.SubRegion)
	}
	return nil
}
