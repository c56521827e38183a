package naming

import (
	"strconv"
	"strings"

	"shelver/internal/library"
)

type tokenValues struct {
	author  library.Author
	edition library.Edition
	file    library.ManagedFile
}

func (t tokenValues) lookup(token string) (string, bool) {
	key := strings.ToLower(strings.ReplaceAll(token, " ", ""))
	switch key {
	case "authorname":
		return t.author.Name, true
	case "authorsortname":
		if strings.TrimSpace(t.author.SortName) == "" {
			return t.author.Name, true
		}
		return t.author.SortName, true
	case "booktitle":
		if strings.TrimSpace(t.edition.Book.Title) == "" {
			return t.edition.Title, true
		}
		return t.edition.Book.Title, true
	case "bookseries":
		return t.edition.Book.Series, true
	case "bookseriesposition":
		return t.edition.Book.SeriesPosition, true
	case "editiontitle":
		if strings.TrimSpace(t.edition.Title) == "" {
			return t.edition.Book.Title, true
		}
		return t.edition.Title, true
	case "releaseyear":
		return t.edition.Book.ReleaseYear(), true
	case "partnumber":
		if t.file.Part <= 0 {
			return "", true
		}
		return strconv.Itoa(t.file.Part), true
	case "partcount":
		if t.file.PartCount <= 0 {
			return "", true
		}
		return strconv.Itoa(t.file.PartCount), true
	}
	return "", false
}
