package docs

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

type swaggerDoc struct {
	BasePath    string                                `json:"basePath"`
	Paths       map[string]map[string]json.RawMessage `json:"paths"`
	Definitions map[string]struct {
		Properties map[string]struct {
			Enum []string `json:"enum"`
		} `json:"properties"`
	} `json:"definitions"`
}

func readDoc(t *testing.T) (string, swaggerDoc) {
	t.Helper()
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc swaggerDoc
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return raw, doc
}

func TestDoc_ReferencesResolve(t *testing.T) {
	// Arrange
	raw, doc := readDoc(t)

	// Act
	refs := regexp.MustCompile(`"#/definitions/([^"]+)"`).FindAllStringSubmatch(raw, -1)

	// Assert
	assert.Equal(t, "/api", doc.BasePath)
	require.NotEmpty(t, refs)
	for _, ref := range refs {
		assert.Contains(t, doc.Definitions, ref[1])
	}
}

func TestDoc_MemberRoleExcludesOwner(t *testing.T) {
	_, doc := readDoc(t)

	// владелец задаётся только при создании проекта
	role := doc.Definitions["model.InsertProjectMember"].Properties["role"]
	assert.Equal(t, []string{"admin", "member"}, role.Enum)
}

func TestDoc_ListsEveryResource(t *testing.T) {
	_, doc := readDoc(t)

	for _, path := range []string{
		"/auth/login", "/profiles/{id}", "/projects", "/projects/{id}/members/{userId}",
		"/tasks/{id}/comments", "/documents/{id}", "/document-templates",
	} {
		assert.Contains(t, doc.Paths, path)
	}
}
