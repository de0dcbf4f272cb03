// Package binding implements the parsed binding document: the set of
// listener <-> upstream endpoint pairs, each with an optional HTTP rule
// set, that drives the proxy's acceptor fleet.
package binding

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	apperrors "github.com/carlosrabelo/tcpforward/pkg/errors"
	"github.com/carlosrabelo/tcpforward/pkg/logger"
)

// BindingRule is an immutable from -> to mapping with an optional rule set.
// Mutation means remove-and-reinsert into the owning BindingSet.
type BindingRule struct {
	Name  string
	From  string // "host:port" as configured; resolved at listener-start time
	To    string
	Rules RuleSet
}

// key returns a canonical string used for set-membership comparison. It
// covers every field (name, endpoints, and both rule slices), mirroring the
// source's #[derive(PartialEq, Eq, Hash)] over the whole struct.
func (b BindingRule) key() string {
	h := sha256.New()
	fmt.Fprintf(h, "name=%s|from=%s|to=%s", b.Name, b.From, b.To)
	for _, r := range b.Rules.Egress {
		fmt.Fprintf(h, "|eg=%+v", r)
	}
	for _, r := range b.Rules.Ingress {
		fmt.Fprintf(h, "|in=%+v", r)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// BindingSet is a de-duplicated collection of BindingRule, loaded once at
// startup and kept for the process lifetime.
type BindingSet struct {
	ID       string
	Applied  bool
	Bindings []BindingRule

	seen map[string]struct{}
}

// New creates an empty BindingSet with the given id.
func New(id string) *BindingSet {
	return &BindingSet{ID: id, seen: make(map[string]struct{})}
}

// AddRule inserts rule if it is not already present, returning true if it
// was newly added (false if it was a duplicate and silently dropped).
func (bs *BindingSet) AddRule(rule BindingRule) bool {
	if bs.seen == nil {
		bs.seen = make(map[string]struct{})
	}
	if rule.Name == "" {
		rule.Name = uuid.NewString()
	}
	k := rule.key()
	if _, ok := bs.seen[k]; ok {
		return false
	}
	bs.seen[k] = struct{}{}
	bs.Bindings = append(bs.Bindings, rule)
	return true
}

// SetApplied flips the bootstrap-only applied flag. The proxy engine never
// reads this; it's observable metadata only.
func (bs *BindingSet) SetApplied(applied bool) {
	bs.Applied = applied
}

// jsonBinding and jsonBindingSet mirror the binding document's wire shape.
type jsonBinding struct {
	Name  string      `json:"name"`
	From  string      `json:"from"`
	To    string      `json:"to"`
	Rules jsonRuleSet `json:"rules"`
}

type jsonBindingSet struct {
	Bindings []jsonBinding `json:"bindings"`
}

// LoadFromFile reads filename as UTF-8 JSON and builds a BindingSet with
// Applied=false. A read or parse failure is fatal to bootstrap.
func LoadFromFile(id, filename string) (*BindingSet, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeBindingParse, "could not read binding file", err)
	}

	var parsed jsonBindingSet
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeBindingParse, "could not parse binding file", err)
	}

	bs := New(id)
	dropped := 0
	for _, jb := range parsed.Bindings {
		rule := BindingRule{
			Name:  jb.Name,
			From:  jb.From,
			To:    jb.To,
			Rules: jb.Rules.toRuleSet(),
		}
		if !bs.AddRule(rule) {
			dropped++
		}
	}
	if dropped > 0 {
		logger.Debug("dropped %d duplicate binding(s) while loading %s", dropped, filename)
	}
	return bs, nil
}
