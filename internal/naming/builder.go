package naming

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"shelver/internal/config"
	"shelver/internal/library"
)

const (
	fallbackAuthor = "Unknown Author"
	fallbackBook   = "Unknown Book"
	fallbackFile   = "Unknown"
)

var (
	tokenPattern      = regexp.MustCompile(`\{([A-Za-z][A-Za-z ]*)(?::([^{}]*))?\}`)
	emptyGroupPattern = regexp.MustCompile(`\(\s*\)|\[\s*\]|\{\s*\}`)
	separatorPattern  = regexp.MustCompile(`\s+-\s*$|^\s*-\s+`)

	upperCaser = cases.Upper(language.Und)
	lowerCaser = cases.Lower(language.Und)
	titleCaser = cases.Title(language.Und, cases.NoLower)
)

// Options configures a Builder.
type Options struct {
	AuthorFolder      string
	BookFolder        string
	FileName          string
	MultiPartFileName string
	ASCIIOnly         bool
	// IllegalReplacement substitutes every illegal character. When empty,
	// separators become "-" and the remaining characters are dropped.
	IllegalReplacement string
}

// OptionsFromConfig extracts naming options from configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	return Options{
		AuthorFolder:       cfg.Naming.AuthorFolder,
		BookFolder:         cfg.Naming.BookFolder,
		FileName:           cfg.Naming.FileName,
		MultiPartFileName:  cfg.Naming.MultiPartFileName,
		ASCIIOnly:          cfg.Naming.ASCIIOnly,
		IllegalReplacement: cfg.Naming.IllegalReplacement,
	}
}

// Builder renders canonical names and paths. It is safe for concurrent use.
type Builder struct {
	opts     Options
	replacer *strings.Replacer
}

// NewBuilder constructs a Builder, filling empty templates with defaults.
func NewBuilder(opts Options) *Builder {
	defaults := config.Default().Naming
	if strings.TrimSpace(opts.AuthorFolder) == "" {
		opts.AuthorFolder = defaults.AuthorFolder
	}
	if strings.TrimSpace(opts.BookFolder) == "" {
		opts.BookFolder = defaults.BookFolder
	}
	if strings.TrimSpace(opts.FileName) == "" {
		opts.FileName = defaults.FileName
	}
	if strings.TrimSpace(opts.MultiPartFileName) == "" {
		opts.MultiPartFileName = opts.FileName
	}
	return &Builder{opts: opts, replacer: illegalReplacer(opts.IllegalReplacement)}
}

// BuildAuthorFolderName returns the folder name for author under a library root.
func (b *Builder) BuildAuthorFolderName(author library.Author) string {
	tokens := tokenValues{author: author}
	return b.renderSegment(b.opts.AuthorFolder, tokens, fallbackAuthor)
}

// BuildBookFolder returns the absolute book folder for edition under the author folder.
func (b *Builder) BuildBookFolder(author library.Author, edition library.Edition) string {
	tokens := tokenValues{author: author, edition: edition}
	return filepath.Join(author.Path, b.renderSegment(b.opts.BookFolder, tokens, fallbackBook))
}

// BuildFileName returns the file name, without extension, for file. The result
// may contain path separators when the template introduces a track folder.
func (b *Builder) BuildFileName(author library.Author, edition library.Edition, file library.ManagedFile) string {
	template := b.opts.FileName
	if file.PartCount > 1 {
		template = b.opts.MultiPartFileName
	}
	tokens := tokenValues{author: author, edition: edition, file: file}

	parts := strings.Split(template, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		segment := b.renderSegment(part, tokens, "")
		if segment == "" {
			continue
		}
		segments = append(segments, segment)
	}
	if len(segments) == 0 {
		return fallbackFile
	}
	return filepath.Join(segments...)
}

// BuildFilePath joins the book folder, fileName and extension into an absolute path.
func (b *Builder) BuildFilePath(author library.Author, edition library.Edition, fileName, extension string) string {
	return filepath.Join(b.BuildBookFolder(author, edition), fileName+extension)
}

func (b *Builder) renderSegment(template string, tokens tokenValues, fallback string) string {
	rendered := tokenPattern.ReplaceAllStringFunc(template, func(raw string) string {
		match := tokenPattern.FindStringSubmatch(raw)
		value, ok := tokens.lookup(match[1])
		if !ok {
			return raw
		}
		value = applyFormat(value, match[1], match[2])
		return b.cleanValue(value)
	})
	segment := b.cleanSegment(rendered)
	if segment == "" {
		return fallback
	}
	return segment
}

func (b *Builder) cleanValue(value string) string {
	value = norm.NFC.String(value)
	if b.opts.ASCIIOnly {
		value = unidecode.Unidecode(value)
	}
	return b.replacer.Replace(value)
}

func (b *Builder) cleanSegment(segment string) string {
	segment = norm.NFC.String(segment)
	if b.opts.ASCIIOnly {
		segment = unidecode.Unidecode(segment)
	}
	segment = b.replacer.Replace(segment)
	segment = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, segment)
	segment = emptyGroupPattern.ReplaceAllString(segment, "")
	segment = strings.Join(strings.Fields(segment), " ")
	segment = separatorPattern.ReplaceAllString(segment, "")
	return TrimSegment(segment)
}

// TrimSegment removes characters that cannot end a path segment on common
// filesystems.
func TrimSegment(segment string) string {
	return strings.TrimLeft(strings.TrimRight(segment, ". "), " ")
}

func applyFormat(value, token, format string) string {
	format = strings.TrimSpace(format)
	switch strings.ToLower(format) {
	case "upper":
		return upperCaser.String(value)
	case "lower":
		return lowerCaser.String(value)
	case "title":
		return titleCaser.String(value)
	}
	if format != "" && strings.Trim(format, "0") == "" {
		if n, err := strconv.Atoi(value); err == nil {
			return fmt.Sprintf("%0*d", len(format), n)
		}
		return value
	}
	switch {
	case token == strings.ToUpper(token) && token != strings.ToLower(token):
		return upperCaser.String(value)
	case token == strings.ToLower(token):
		return lowerCaser.String(value)
	}
	return value
}

func illegalReplacer(replacement string) *strings.Replacer {
	illegal := []string{`\`, `/`, `:`, `*`, `?`, `"`, `<`, `>`, `|`}
	pairs := make([]string, 0, len(illegal)*2)
	if replacement != "" {
		for _, ch := range illegal {
			pairs = append(pairs, ch, replacement)
		}
		return strings.NewReplacer(pairs...)
	}
	return strings.NewReplacer(
		"/", "-",
		`\`, "-",
		":", " -",
		"*", "-",
		"?", "",
		`"`, "'",
		"<", "",
		">", "",
		"|", "",
	)
}
