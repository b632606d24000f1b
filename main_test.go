package main

import (
	"testing"

	"animius/internal/config"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferFormatFromExtension(t *testing.T) {
	cases := map[string]string{
		"week.json":    "json",
		"home.MD":      "markdown",
		"detail.htm":   "html",
		"results.csv":  "csv",
		"notes.txt":    "text",
		"stream.m3u8":  "",
		"no-extension": "",
	}
	for name, want := range cases {
		assert.Equal(t, want, inferFormatFromExtension(name), name)
	}
}

func TestDepsDomainOverrides(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg/animius.yaml", []byte(`
sources:
  agedm:
    domain: https://age.mirror.test
  xifan:
    domain: https://xifan.mirror.test
resolver:
  timeout: 15s
`), 0o644))
	require.NoError(t, config.Setup(fs, "/cfg/animius.yaml"))
	t.Cleanup(viper.Reset)

	site, domain = "agedm", ""
	t.Cleanup(func() { site, domain = "agedm", "" })

	assert.Equal(t, "https://age.mirror.test", deps("agedm").BaseURL)
	assert.Equal(t, "", deps("nyafun").BaseURL)
	assert.Equal(t, "15s", deps("agedm").ResolveTimeout.String())

	// --domain only applies to the selected source.
	domain = "https://flag.mirror.test"
	assert.Equal(t, "https://flag.mirror.test", deps("agedm").BaseURL)
	assert.Equal(t, "https://xifan.mirror.test", deps("xifan").BaseURL)
}

func TestOpenSourceAppliesOverride(t *testing.T) {
	require.NoError(t, config.Setup(afero.NewMemMapFs(), ""))
	t.Cleanup(viper.Reset)
	viper.Set(config.SourceDomain("nyafun"), "https://nya.mirror.test")

	s, err := openSource("nyafun")
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "https://nya.mirror.test/", s.BaseURL())
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"sources", "home", "week", "search", "detail", "play"})
}
