package draft

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RequiredFields 最终提交前必须非空的字段，顺序即错误提示顺序
var RequiredFields = []string{
	"title",
	"subtitle",
	"description",
	"price",
	"welcomeMessage",
	"congratsMessage",
}

func requiredValue(m Metadata, field string) string {
	switch field {
	case "title":
		return m.Title
	case "subtitle":
		return m.Subtitle
	case "description":
		return m.Description
	case "price":
		return m.Price
	case "welcomeMessage":
		return m.WelcomeMessage
	case "congratsMessage":
		return m.CongratsMessage
	}
	return ""
}

// ValidateRequired runs the fixed non-empty checks ahead of final submission.
// On failure every required field is marked touched (for inline display) and
// a single aggregate error names the missing ones.
func ValidateRequired(m Metadata) (map[string]bool, error) {
	var missing []string
	for _, f := range RequiredFields {
		if strings.TrimSpace(requiredValue(m, f)) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	touched := make(map[string]bool, len(RequiredFields))
	for _, f := range RequiredFields {
		touched[f] = true
	}
	return touched, fmt.Errorf("please fill in the required fields: %s", strings.Join(missing, ", "))
}

// ParsePrice 提交时才把表单里的价格字符串转成数值
func ParsePrice(raw string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || price < 0 {
		return 0, fmt.Errorf("invalid price %q", raw)
	}
	return price, nil
}

// FileKey addresses one binary part of the final submission payload by its
// position in the curriculum, e.g. curriculum[0][items][2][video] or
// curriculum[0][items][2][documents][1].
type FileKey struct {
	SectionIndex int
	ItemIndex    int
	Field        string // "video" or "documents"
	DocIndex     int    // valid only for documents
}

// Less orders keys by curriculum position: section, then item, video before
// its item's documents, documents by their own index.
func (k FileKey) Less(o FileKey) bool {
	if k.SectionIndex != o.SectionIndex {
		return k.SectionIndex < o.SectionIndex
	}
	if k.ItemIndex != o.ItemIndex {
		return k.ItemIndex < o.ItemIndex
	}
	if k.Field != o.Field {
		return k.Field == "video"
	}
	return k.DocIndex < o.DocIndex
}

var fileKeyPattern = regexp.MustCompile(`^curriculum\[(\d+)\]\[items\]\[(\d+)\]\[(video|documents)\](?:\[(\d+)\])?$`)

// ParseFileKey parses a multipart field name into a FileKey.
func ParseFileKey(key string) (FileKey, bool) {
	m := fileKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return FileKey{}, false
	}
	sectionIdx, _ := strconv.Atoi(m[1])
	itemIdx, _ := strconv.Atoi(m[2])
	fk := FileKey{SectionIndex: sectionIdx, ItemIndex: itemIdx, Field: m[3]}
	if fk.Field == "documents" {
		if m[4] == "" {
			return FileKey{}, false
		}
		fk.DocIndex, _ = strconv.Atoi(m[4])
	} else if m[4] != "" {
		return FileKey{}, false
	}
	return fk, true
}
