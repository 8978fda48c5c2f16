package patterns

// Numeral matches Chinese, Arabic and Roman numerals.
const Numeral = `[一二三四五六七八九十百千零〇两0-9ivxlcdmIVXLCDM]+`

// DefaultSpecs returns the built-in rule table.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Name:           "cn-chapter",
			Level:          0,
			Rank:           0,
			Pattern:        `^#\s*第(?P<num>` + Numeral + `)章(?:\s+(?P<title>.+?))?$`,
			Template:       "第${num}章 ${title}",
			TrimPageNumber: true,
		},
		{
			Name:     "cn-chapter-alt",
			Level:    0,
			Rank:     1,
			Pattern:  `^##\s*(?P<num>` + Numeral + `)、\s*(?P<title>.+?)$`,
			Template: "${num}、${title}",
		},
		{
			Name:    "en-chapter",
			Level:   0,
			Rank:    2,
			Pattern: `^#\s*(?i:chapter)\s+(?P<num>[0-9A-Za-z]+)\b.*$`,
		},
		{
			Name:           "cn-section",
			Level:          1,
			Rank:           10,
			Pattern:        `^#\s*第(?P<num>` + Numeral + `)节\s+(?P<title>.+?)$`,
			TrimPageNumber: true,
		},
		{
			Name:    "en-section",
			Level:   1,
			Rank:    15,
			Pattern: `^##\s*(?i:section)\s+(?P<num>[0-9]+(?:\.[0-9]+)*)\b.*$`,
		},
		{
			Name:           "cn-enum",
			Level:          2,
			Rank:           20,
			Pattern:        `^(?P<num>` + Numeral + `)、\s*(?P<title>.+?)$`,
			TrimPageNumber: true,
		},
		{
			Name:           "paren-enum",
			Level:          3,
			Rank:           30,
			Pattern:        `^[(（](?P<num>` + Numeral + `)[)）]\s*(?P<title>.+?)$`,
			TrimPageNumber: true,
		},
		{
			Name:    "h3-paren-enum",
			Level:   4,
			Rank:    40,
			Pattern: `^###\s*（(?P<num>` + Numeral + `)）\s*(?P<title>.+?)$`,
		},
	}
}

var defaultSet = mustSet(DefaultSpecs())

// Default returns the built-in Set.
func Default() *Set { return defaultSet }

func mustSet(specs []Spec) *Set {
	s, err := FromSpecs(specs)
	if err != nil {
		panic(err)
	}
	return s
}
