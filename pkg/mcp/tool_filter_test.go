package mcp

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"k8s.io/utils/ptr"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
)

type ToolFilterSuite struct {
	suite.Suite
}

func annotatedTool(name string, readOnly, destructive *bool) api.ServerTool {
	return api.ServerTool{Tool: api.Tool{
		Name:        name,
		Annotations: api.ToolAnnotations{ReadOnlyHint: readOnly, DestructiveHint: destructive},
	}}
}

func (s *ToolFilterSuite) TestCompositeFilter() {
	s.Run("returns true if all filters return true", func() {
		filter := CompositeFilter(
			func(tool api.ServerTool) bool { return true },
			func(tool api.ServerTool) bool { return true },
		)
		s.True(filter(annotatedTool("test", nil, nil)))
	})
	s.Run("returns false if any filter returns false", func() {
		filter := CompositeFilter(
			func(tool api.ServerTool) bool { return true },
			func(tool api.ServerTool) bool { return false },
		)
		s.False(filter(annotatedTool("test", nil, nil)))
	})
	s.Run("returns true without filters", func() {
		s.True(CompositeFilter()(annotatedTool("test", nil, nil)))
	})
}

func (s *ToolFilterSuite) TestReadOnlyFilter() {
	s.Run("disabled keeps every tool", func() {
		s.True(ReadOnlyFilter(false)(annotatedTool("create_object", ptr.To(false), ptr.To(false))))
	})
	s.Run("enabled keeps read only tools", func() {
		s.True(ReadOnlyFilter(true)(annotatedTool("get_objects", ptr.To(true), ptr.To(false))))
	})
	s.Run("enabled drops write tools", func() {
		s.False(ReadOnlyFilter(true)(annotatedTool("create_object", ptr.To(false), ptr.To(false))))
	})
	s.Run("enabled drops tools without readOnlyHint", func() {
		s.False(ReadOnlyFilter(true)(annotatedTool("unannotated", nil, nil)))
	})
}

func (s *ToolFilterSuite) TestDisableDestructiveFilter() {
	s.Run("disabled keeps destructive tools", func() {
		s.True(DisableDestructiveFilter(false)(annotatedTool("delete_object", ptr.To(false), ptr.To(true))))
	})
	s.Run("enabled drops destructive tools", func() {
		s.False(DisableDestructiveFilter(true)(annotatedTool("delete_object", ptr.To(false), ptr.To(true))))
	})
	s.Run("enabled keeps additive tools", func() {
		s.True(DisableDestructiveFilter(true)(annotatedTool("create_object", ptr.To(false), ptr.To(false))))
	})
	s.Run("enabled keeps tools without destructiveHint", func() {
		s.True(DisableDestructiveFilter(true)(annotatedTool("unannotated", nil, nil)))
	})
}

func (s *ToolFilterSuite) TestEnabledToolsFilter() {
	s.Run("nil list keeps every tool", func() {
		s.True(EnabledToolsFilter(nil)(annotatedTool("merge_branch", nil, nil)))
	})
	s.Run("keeps listed tools", func() {
		s.True(EnabledToolsFilter([]string{"get_objects"})(annotatedTool("get_objects", nil, nil)))
	})
	s.Run("drops other tools", func() {
		s.False(EnabledToolsFilter([]string{"get_objects"})(annotatedTool("merge_branch", nil, nil)))
	})
}

func (s *ToolFilterSuite) TestDisabledToolsFilter() {
	s.Run("drops listed tools", func() {
		s.False(DisabledToolsFilter([]string{"merge_branch"})(annotatedTool("merge_branch", nil, nil)))
	})
	s.Run("keeps other tools", func() {
		s.True(DisabledToolsFilter([]string{"merge_branch"})(annotatedTool("get_objects", nil, nil)))
	})
}

func TestToolFilter(t *testing.T) {
	suite.Run(t, new(ToolFilterSuite))
}
