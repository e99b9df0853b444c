package render

import "github.com/smallbiznis/invoicebuilder/internal/invoice/domain"

// Theme is the visual strategy of one template variant. Themes change colours
// and typography only; layout and data are shared.
type Theme interface {
	Template() domain.Template
	view() ThemeView
}

type modernTheme struct{}

type classicTheme struct{}

type minimalTheme struct{}

var (
	_ Theme = modernTheme{}
	_ Theme = classicTheme{}
	_ Theme = minimalTheme{}
)

func (modernTheme) Template() domain.Template { return domain.TemplateModern }

func (modernTheme) view() ThemeView {
	return ThemeView{
		Name:                  string(domain.TemplateModern),
		Accent:                "#3B82F6",
		HeaderBorder:          "3px solid #3B82F6",
		HeadingSize:           "32px",
		HeadingWeight:         "700",
		HeadingFont:           "inherit",
		HeadingLetterSpacing:  "normal",
		TableHeaderBackground: "#3B82F6",
		TableHeaderColor:      "#FFFFFF",
		TableHeaderBorder:     "none",
	}
}

func (classicTheme) Template() domain.Template { return domain.TemplateClassic }

func (classicTheme) view() ThemeView {
	return ThemeView{
		Name:                  string(domain.TemplateClassic),
		Accent:                "#8B5CF6",
		HeaderBorder:          "2px solid #8B5CF6",
		HeadingSize:           "28px",
		HeadingWeight:         "600",
		HeadingFont:           "Georgia, 'Times New Roman', serif",
		HeadingLetterSpacing:  "normal",
		TableHeaderBackground: "#8B5CF6",
		TableHeaderColor:      "#FFFFFF",
		TableHeaderBorder:     "none",
	}
}

func (minimalTheme) Template() domain.Template { return domain.TemplateMinimal }

func (minimalTheme) view() ThemeView {
	return ThemeView{
		Name:                  string(domain.TemplateMinimal),
		Accent:                "#374151",
		HeaderBorder:          "1px solid #E5E7EB",
		HeadingSize:           "24px",
		HeadingWeight:         "300",
		HeadingFont:           "inherit",
		HeadingLetterSpacing:  "2px",
		TableHeaderBackground: "#F9FAFB",
		TableHeaderColor:      "#374151",
		TableHeaderBorder:     "2px solid #E5E7EB",
	}
}

// Themes lists every variant in display order.
func Themes() []Theme {
	return []Theme{modernTheme{}, classicTheme{}, minimalTheme{}}
}

// ThemeFor resolves a template selector. Unknown selectors resolve to the
// modern theme and ok is false.
func ThemeFor(t domain.Template) (theme Theme, ok bool) {
	for _, th := range Themes() {
		if th.Template() == t {
			return th, true
		}
	}
	return modernTheme{}, false
}

// Accent returns the accent colour of a theme, for renderers outside HTML.
func Accent(th Theme) string {
	return string(th.view().Accent)
}
