package statement

import (
	"bufio"
	"strings"
)

// parseTagged handles the minimal tagged-text bank export: a line-oriented
// scan over <STMTTRN> blocks carrying <DTPOSTED>, <TRNAMT>, and a
// <MEMO> or <NAME> description. Anything outside a block is ignored.
func parseTagged(data []byte) ([]Row, error) {
	var rows []Row
	var current *Row
	var haveDate, haveAmount bool

	flush := func() {
		if current != nil && haveDate && haveAmount {
			rows = append(rows, *current)
		}
		current = nil
		haveDate, haveAmount = false, false
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "<STMTTRN>"):
			flush()
			current = &Row{}
		case strings.HasPrefix(line, "</STMTTRN>"):
			flush()
		case current == nil:
			continue
		case strings.HasPrefix(line, "<DTPOSTED>"):
			// DTPOSTED may carry a time suffix (20240310120000); the first
			// eight digits are the date.
			value := tagValue(line, "<DTPOSTED>")
			if len(value) > 8 {
				value = value[:8]
			}
			if date, ok := parseDate(value); ok {
				current.Date = date
				haveDate = true
			}
		case strings.HasPrefix(line, "<TRNAMT>"):
			if amount, err := ParseAmount(tagValue(line, "<TRNAMT>")); err == nil {
				current.Amount = amount
				haveAmount = true
			}
		case strings.HasPrefix(line, "<MEMO>"):
			current.Description = tagValue(line, "<MEMO>")
		case strings.HasPrefix(line, "<NAME>"):
			if current.Description == "" {
				current.Description = tagValue(line, "<NAME>")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return rows, nil
}

func tagValue(line, tag string) string {
	value := strings.TrimPrefix(line, tag)
	// Some exports close inline: <MEMO>Payment ABC</MEMO>
	if end := strings.Index(value, "</"); end >= 0 {
		value = value[:end]
	}
	return strings.TrimSpace(value)
}
