package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Tree(t *testing.T) {
	res := executeCommand(t, nil, "parse", "-e", "a = b + 1")

	require.NoError(t, res.err)
	expected := `Program
  Assignment a @1:1
    BinaryOp + @1:5
      Identifier b @1:5
      Literal 1 @1:9
`
	assert.Equal(t, expected, res.stdout)
}

func TestParse_Format(t *testing.T) {
	res := executeCommand(t, nil, "parse", "-e", `if(a>1){b.x=a-1}else{s="no"}`, "--format")

	require.NoError(t, res.err)
	assert.Equal(t, "if (a > 1) { b.x = a - 1 } else { s = \"no\" }\n", res.stdout)
}

func TestParse_JSON(t *testing.T) {
	res := executeCommand(t, nil, "parse", "-e", "a && true", "--output", "json")
	require.NoError(t, res.err)

	var tree map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &tree))
	assert.Equal(t, "Program", tree["kind"])

	children := tree["children"].([]interface{})
	require.Len(t, children, 1)
	logical := children[0].(map[string]interface{})
	assert.Equal(t, "LogicalOp", logical["kind"])
	assert.Equal(t, "&&", logical["op"])
}

func TestParse_SyntaxError(t *testing.T) {
	res := executeCommand(t, nil, "parse", "-e", "if (a > 1) {")

	require.ErrorIs(t, res.err, errFailed)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "SyntaxError")
	assert.Contains(t, res.stderr, "end of input")
}

func TestSchemaCommand(t *testing.T) {
	res := executeCommand(t, nil, "schema")
	require.NoError(t, res.err)

	var out struct {
		Schema map[string]interface{} `json:"schema"`
		Nodes  []map[string]interface{} `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Contains(t, out.Schema, "properties")
	assert.NotEmpty(t, out.Nodes)
	assert.Equal(t, "Literal", out.Nodes[0]["kind"])
}
