package ast

import (
	"embed"
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/stoewer/go-strcase"
)

//go:embed helpers.go
var helpersGoFile embed.FS

// CustomReflector extends the default reflector with field docs read from
// this package's source
type CustomReflector struct {
	*jsonschema.Reflector
}

// NewCustomReflector creates a reflector that names keys and definitions in snake case
func NewCustomReflector() *CustomReflector {
	r := &jsonschema.Reflector{
		KeyNamer: strcase.SnakeCase,
		Namer: func(t reflect.Type) string {
			return strcase.SnakeCase(t.Name())
		},
		ExpandedStruct: true,
	}

	return &CustomReflector{Reflector: r}
}

// NewSchema returns the JSON schema of the DumpNode tree
func NewSchema() ([]byte, error) {
	reflector := NewCustomReflector()
	err := reflector.extractGoComments(reflect.TypeOf(DumpNode{}).PkgPath())
	if err != nil {
		return nil, err
	}

	schema := reflector.Reflect(&DumpNode{})
	return json.MarshalIndent(schema, "", "  ")
}

func (r *CustomReflector) extractGoComments(pkg string) error {
	commentMap := make(map[string]string)
	fset := token.NewFileSet()
	src, err := helpersGoFile.ReadFile("helpers.go")
	if err != nil {
		return err
	}

	f, err := parser.ParseFile(fset, "helpers.go", src, parser.ParseComments)
	if err != nil {
		return err
	}

	typ := ""
	ast.Inspect(f, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.GenDecl:
			if x.Tok != token.TYPE {
				return true
			}
			for _, spec := range x.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok || !ast.IsExported(ts.Name.String()) {
					continue
				}
				typ = ts.Name.String()
				if txt := strings.TrimSpace(x.Doc.Text()); txt != "" {
					commentMap[fmt.Sprintf("%s.%s", pkg, typ)] = txt
				}
			}
		case *ast.Field:
			txt := x.Doc.Text()
			if txt == "" {
				txt = x.Comment.Text()
			}
			if typ != "" && txt != "" {
				for _, n := range x.Names {
					if ast.IsExported(n.String()) {
						commentMap[fmt.Sprintf("%s.%s.%s", pkg, typ, n)] = strings.TrimSpace(txt)
					}
				}
			}
		}
		return true
	})

	r.CommentMap = commentMap
	return nil
}
