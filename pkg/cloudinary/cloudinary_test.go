package cloudinary

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestBuildPublicIDNormalisesName(t *testing.T) {
	id := buildPublicID("Bank Statement (March).PDF")
	require.True(t, strings.HasPrefix(id, "bank-statement--march-"), id)
	require.NotContains(t, id, ".")
}

func TestBuildPublicIDFallsBack(t *testing.T) {
	require.True(t, strings.HasPrefix(buildPublicID("???.pdf"), "document-"))
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "demo"}, zerolog.Nop())
	require.Error(t, err)
}

func TestTargetFolderJoinsConfiguredRoot(t *testing.T) {
	require.Equal(t, "portal/clients/7", targetFolder("portal", "/clients/7/"))
	require.Equal(t, "clients/7", targetFolder("", "clients/7"))
}
