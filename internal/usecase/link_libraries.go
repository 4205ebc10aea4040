package usecase

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/lo"
	"github.com/trebuchet-org/sling/internal/domain"
)

var placeholderPattern = regexp.MustCompile(`__\$([0-9a-fA-F]{34})\$__`)

// LibraryPlaceholder returns the marker solc leaves for a fully qualified library name
func LibraryPlaceholder(fqName string) string {
	return "__$" + hex.EncodeToString(crypto.Keccak256([]byte(fqName)))[:34] + "$__"
}

// LinkBytecode substitutes library addresses into bytecode. libs is keyed by
// bare library name or "source:Name". Offsets from refs are applied first,
// then placeholders; anything left fails with domain.ErrUnresolvedLibraryReference.
func LinkBytecode(bytecode string, refs domain.LinkReferences, libs map[string]common.Address) (string, error) {
	code := []byte(strings.TrimPrefix(bytecode, "0x"))

	lookup := func(source, name string) (common.Address, bool) {
		if addr, ok := libs[source+":"+name]; ok {
			return addr, true
		}
		addr, ok := libs[name]
		return addr, ok
	}

	// placeholder hash -> address for every name we can resolve
	byPlaceholder := make(map[string]common.Address)
	for key, addr := range libs {
		if strings.Contains(key, ":") {
			byPlaceholder[LibraryPlaceholder(key)] = addr
		}
	}

	var unresolved []string
	missing := make(map[string]bool)
	for _, source := range lo.Keys(refs) {
		for name, offsets := range refs[source] {
			fq := source + ":" + name
			addr, ok := lookup(source, name)
			if !ok {
				unresolved = append(unresolved, fq)
				missing[LibraryPlaceholder(fq)] = true
				continue
			}
			byPlaceholder[LibraryPlaceholder(fq)] = addr

			hexAddr := []byte(hex.EncodeToString(addr.Bytes()))
			for _, off := range offsets {
				start, end := off.Start*2, (off.Start+off.Length)*2
				if off.Length != common.AddressLength || end > len(code) {
					return "", fmt.Errorf("invalid link reference for %s at byte %d", fq, off.Start)
				}
				copy(code[start:end], hexAddr)
			}
		}
	}

	linked := placeholderPattern.ReplaceAllStringFunc(string(code), func(marker string) string {
		if addr, ok := byPlaceholder[strings.ToLower(marker)]; ok {
			return hex.EncodeToString(addr.Bytes())
		}
		return marker
	})

	// Anything still carrying an underscore was never linked
	for _, marker := range placeholderPattern.FindAllString(linked, -1) {
		if !missing[strings.ToLower(marker)] {
			unresolved = append(unresolved, marker)
		}
	}
	if len(unresolved) == 0 && strings.Contains(linked, "__") {
		idx := strings.Index(linked, "__")
		unresolved = append(unresolved, linked[idx:min(idx+40, len(linked))])
	}

	if len(unresolved) > 0 {
		unresolved = lo.Uniq(unresolved)
		sort.Strings(unresolved)
		return "", &domain.UnresolvedLibraryError{Libraries: unresolved}
	}

	return "0x" + linked, nil
}
