package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type OutputSuite struct {
	suite.Suite
}

func (s *OutputSuite) TestPrintObjectList() {
	raw := `[{"id":2,"name":"core-switch-01","status":{"value":"failed","label":"Failed"}},{"id":1,"display":"edge-router-01","status":"active"}]`
	s.Run("sorts by id and colors status", func() {
		out := &bytes.Buffer{}
		PrintObjectList(out, raw, false)
		s.Equal("- #1 edge-router-01 "+colorGreen+"active"+colorReset+"\n"+
			"- #2 core-switch-01 "+colorRed+"failed"+colorReset+"\n"+
			"2 object(s)\n", out.String())
	})
	s.Run("json output keeps every field", func() {
		out := &bytes.Buffer{}
		PrintObjectList(out, raw, true)
		var items []map[string]any
		s.Require().NoError(json.Unmarshal(out.Bytes(), &items))
		s.Len(items, 2)
	})
	s.Run("empty list", func() {
		out := &bytes.Buffer{}
		PrintObjectList(out, `[]`, false)
		s.Equal("No objects found\n", out.String())
	})
	s.Run("non list output is printed raw", func() {
		out := &bytes.Buffer{}
		PrintObjectList(out, "name: dc1", false)
		s.Equal("name: dc1\n", out.String())
	})
}

func (s *OutputSuite) TestPrint() {
	s.Run("pretty prints JSON for other tools", func() {
		out := &bytes.Buffer{}
		Print(out, "get_object_by_id", `{"id":1}`, true)
		s.Equal("{\n  \"id\": 1\n}\n", out.String())
	})
	s.Run("prints raw text", func() {
		out := &bytes.Buffer{}
		Print(out, "delete_object", "Deleted devices 1", false)
		s.Equal("Deleted devices 1\n", out.String())
	})
}

func (s *OutputSuite) TestPrintToolList() {
	out := &bytes.Buffer{}
	PrintToolList(out, []ToolInfo{{Name: "get_objects", Description: "Get objects", ReadOnly: true}}, false)
	s.Equal("- get_objects [ro]: Get objects\n", out.String())
	out.Reset()
	PrintToolList(out, nil, false)
	s.Equal("No NetBox tools available\n", out.String())
}

func TestOutput(t *testing.T) {
	suite.Run(t, new(OutputSuite))
}
