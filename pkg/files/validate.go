package files

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	// MaxNameLength is the longest accepted file name, in characters.
	MaxNameLength = 255
	// MaxTextLength is the longest accepted text file, in characters.
	MaxTextLength = 1_000_000
)

// Kind is the conversion applied to a file.
type Kind string

const (
	KindHTML     Kind = "html"
	KindMarkdown Kind = "markdown"
	KindCode     Kind = "code"
	KindText     Kind = "text"
	KindImage    Kind = "image"
)

var kinds = map[string]Kind{
	"html":     KindHTML,
	"htm":      KindHTML,
	"md":       KindMarkdown,
	"markdown": KindMarkdown,
	"json":     KindCode,
	"css":      KindCode,
	"js":       KindCode,
	"txt":      KindText,
	"csv":      KindText,
	"png":      KindImage,
	"jpg":      KindImage,
	"jpeg":     KindImage,
	"gif":      KindImage,
	"bmp":      KindImage,
	"webp":     KindImage,
}

// Extensions that must not hide in front of an accepted one, as in "invoice.exe.txt".
var dangerousExtensions = map[string]struct{}{
	"exe": {}, "dll": {}, "com": {}, "bat": {}, "cmd": {}, "scr": {}, "msi": {},
	"ps1": {}, "vbs": {}, "sh": {}, "jar": {}, "php": {},
}

// Supported returns the accepted extensions, sorted.
func Supported() []string {
	return slices.Sorted(maps.Keys(kinds))
}

// KindOf returns the conversion for name's extension.
func KindOf(name string) (Kind, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	k, ok := kinds[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	return k, nil
}

// ValidateName rejects empty and overlong names, path traversal, null
// bytes, shell metacharacters and dangerous inner extensions.
func ValidateName(name string) error {
	err := validation.Validate(name,
		validation.Required,
		validation.RuneLength(1, MaxNameLength),
		validation.By(safeName),
	)
	if err != nil {
		return errors.Join(ErrInvalidName, err)
	}
	return nil
}

func safeName(value any) error {
	name, _ := value.(string)
	switch {
	case strings.Contains(name, ".."), strings.ContainsAny(name, `/\`):
		return errors.New("path traversal detected")
	case strings.ContainsRune(name, 0):
		return errors.New("null byte detected")
	case strings.ContainsAny(name, "$`|;&()<>"):
		return errors.New("suspicious characters detected")
	}
	parts := strings.Split(strings.ToLower(name), ".")
	if len(parts) > 2 {
		for _, ext := range parts[1 : len(parts)-1] {
			if _, ok := dangerousExtensions[ext]; ok {
				return fmt.Errorf("dangerous extension %q", ext)
			}
		}
	}
	return nil
}

var executableMagic = [][]byte{
	[]byte("MZ"),             // PE
	[]byte("\x7fELF"),        // ELF
	{0xcf, 0xfa, 0xed, 0xfe}, // Mach-O
}

func checkExecutable(content []byte) error {
	for _, magic := range executableMagic {
		if bytes.HasPrefix(content, magic) {
			return ErrExecutable
		}
	}
	return nil
}

// validateText checks a text file and returns it as a string.
func validateText(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", ErrEncoding
	}
	text := string(content)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyFile
	}
	if n := utf8.RuneCountInString(text); n > MaxTextLength {
		return "", fmt.Errorf("%w: %d characters, limit is %d", ErrFileTooLarge, n, MaxTextLength)
	}
	return text, nil
}
