package render

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	addressStyle       = color.New(color.FgWhite)
	faintStyle         = color.New(color.Faint)
	successStyle       = color.New(color.FgGreen)
	pendingStyle       = color.New(color.FgYellow)
	failedStyle        = color.New(color.FgRed)
	nameStyle          = color.New(color.FgCyan, color.Bold)
	sectionHeaderStyle = color.New(color.Bold, color.FgHiWhite)
)

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return pendingStyle.Sprintf("⚠️  %s", message)
}

// FormatError formats an error message with the error icon
func FormatError(message string) string {
	if len(message) > 0 {
		message = strings.ToUpper(message[:1]) + message[1:]
	}
	return failedStyle.Sprintf("❌ %s", message)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return successStyle.Sprintf("✅ %s", message)
}

// shortHash abbreviates a transaction hash for tables
func shortHash(h common.Hash) string {
	if h == (common.Hash{}) {
		return ""
	}
	s := h.Hex()
	return s[:10] + "…" + s[len(s)-6:]
}

// title capitalizes a lowercase identifier such as a strategy name
func title(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "-", " "))
}
