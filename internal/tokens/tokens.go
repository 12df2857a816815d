package tokens

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/aman-zulfiqar/a2a-swap/internal/codec"
	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"
)

var ErrUnknownToken = errors.New("unknown token")

// Kind distinguishes the two forms a caller may name a token by.
type Kind uint8

const (
	KindSymbol Kind = iota + 1
	KindAddress
)

// Ref is a token reference as given by a caller: either a known symbol or a
// raw mint address. Parse it once at the boundary and resolve it through a
// Registry.
type Ref struct {
	Kind    Kind
	Symbol  string
	Address solana.PublicKey
}

// Parse classifies s. Anything that decodes to 32 bytes of base58 is an
// address; everything else is treated as a symbol.
func Parse(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, fmt.Errorf("%w: empty token", ErrUnknownToken)
	}
	if addr, err := codec.DecodeAddress(s); err == nil {
		return Ref{Kind: KindAddress, Address: addr}, nil
	}
	return Ref{Kind: KindSymbol, Symbol: strings.ToUpper(s)}, nil
}

func (r Ref) String() string {
	if r.Kind == KindAddress {
		return r.Address.String()
	}
	return r.Symbol
}

// Registry maps upper-case symbols to mints. It is built once at startup and
// read-only afterwards.
type Registry struct {
	bySymbol map[string]solana.PublicKey
	byMint   map[solana.PublicKey]string
}

// NewRegistry builds a registry from symbol -> base58 mint pairs.
func NewRegistry(table map[string]string) (*Registry, error) {
	r := &Registry{
		bySymbol: make(map[string]solana.PublicKey, len(table)),
		byMint:   make(map[solana.PublicKey]string, len(table)),
	}
	if err := r.merge(table); err != nil {
		return nil, err
	}
	return r, nil
}

// tokenFile is the on-disk shape of TOKENS_FILE.
type tokenFile struct {
	Tokens map[string]string `yaml:"tokens"`
}

// LoadFile adds the symbols listed in a YAML file, overriding defaults with
// the same symbol.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read tokens file: %w", err)
	}
	var f tokenFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse tokens YAML: %w", err)
	}
	return r.merge(f.Tokens)
}

func (r *Registry) merge(table map[string]string) error {
	// sorted so the reverse map is deterministic when two symbols share a mint
	symbols := make([]string, 0, len(table))
	for sym := range table {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		mint, err := codec.DecodeAddress(table[sym])
		if err != nil {
			return fmt.Errorf("token %s: %w", sym, err)
		}
		upper := strings.ToUpper(sym)
		r.bySymbol[upper] = mint
		if _, ok := r.byMint[mint]; !ok {
			r.byMint[mint] = upper
		}
	}
	return nil
}

// Resolve returns the mint for ref.
func (r *Registry) Resolve(ref Ref) (solana.PublicKey, error) {
	switch ref.Kind {
	case KindAddress:
		return ref.Address, nil
	case KindSymbol:
		if mint, ok := r.bySymbol[ref.Symbol]; ok {
			return mint, nil
		}
		return solana.PublicKey{}, fmt.Errorf("%w %q: use one of %s or a base58 mint address",
			ErrUnknownToken, ref.Symbol, strings.Join(r.Symbols(), ", "))
	default:
		return solana.PublicKey{}, fmt.Errorf("%w: empty reference", ErrUnknownToken)
	}
}

// ResolveString parses and resolves in one step.
func (r *Registry) ResolveString(s string) (solana.PublicKey, error) {
	ref, err := Parse(s)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return r.Resolve(ref)
}

// Label is the display name for mint: its symbol when known, otherwise a
// shortened address.
func (r *Registry) Label(mint solana.PublicKey) string {
	if sym, ok := r.byMint[mint]; ok {
		return sym
	}
	s := mint.String()
	if len(s) <= 8 {
		return s
	}
	return s[:4] + "…" + s[len(s)-4:]
}

// Symbols lists the known symbols, sorted.
func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.bySymbol))
	for sym := range r.bySymbol {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
