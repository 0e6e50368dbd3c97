package example

type Visibility string

const (
	VisibilityPublic  Visibility = "Public"
	VisibilityPrivate Visibility = "Private"
)

type DocumentKind string

const DocumentKindBoard DocumentKind = "Board"

type Document struct {
	Title      string
	Kind       DocumentKind
	Visibility Visibility
}

func good() {
	d := &Document{Title: "plan", Kind: DocumentKindBoard}
	d.Visibility = VisibilityPrivate
	d.Title = "renamed"
}

func bad() {
	d := &Document{Kind: "Board"} // want "enum field Kind set from string literal"
	d.Visibility = "Public"       // want "enum Visibility assigned string literal"
}
