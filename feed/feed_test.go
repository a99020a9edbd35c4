package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchpath/injector/model"
	"github.com/launchpath/injector/version"
)

const sampleFeed = `<?xml version="1.0"?>
<interface uri="https://example.com/app">
  <name>App</name>
  <implementation id="sha256=app1" version="1.0" stability="stable" arch="Linux-x86_64" main="bin/app" self-test="bin/test" license="OSI Approved :: GPL" released="2026-01-10">
    <manifest-digest sha256="abc123"/>
    <command name="run" path="bin/app">
      <requires interface="https://example.com/lib">
        <version not-before="1" before="2"/>
      </requires>
    </command>
    <requires interface="https://example.com/base" importance="recommended" use="testing"/>
    <restricts interface="https://example.com/other">
      <version version="3.1"/>
    </restricts>
    <environment name="PATH" insert="bin" mode="prepend"/>
    <executable-in-var name="SELF"/>
  </implementation>
  <implementation id="sha256=app2" version="2.0-pre1" arch="*-src"/>
</interface>`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sampleFeed))
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/app", f.URI)
	assert.Equal(t, "App", f.Name)
	assert.Empty(t, f.ReplacedBy)
	require.Len(t, f.Implementations, 2)

	app1 := f.Implementations[0]
	assert.Equal(t, "sha256=app1", app1.ID)
	assert.Equal(t, version.MustParse("1.0"), app1.Version)
	assert.Equal(t, model.Stable, app1.Stability)
	assert.Equal(t, "Linux", app1.OS)
	assert.Equal(t, "x86_64", app1.Machine)
	assert.Equal(t, "https://example.com/app", app1.FromFeed)
	assert.Equal(t, "bin/app", app1.Main)
	assert.Equal(t, "bin/test", app1.SelfTest)
	assert.Equal(t, []string{"sha256=abc123"}, app1.Digests)
	assert.Equal(t, "OSI Approved :: GPL", app1.Attrs["license"])
	assert.Equal(t, "2026-01-10", app1.Attrs["released"])

	run := app1.Command("run")
	require.NotNil(t, run)
	assert.Equal(t, "bin/app", run.Path)
	require.Len(t, run.Requires, 1)
	libDep := run.Requires[0]
	assert.Equal(t, "https://example.com/lib", libDep.Interface)
	assert.Equal(t, model.Essential, libDep.Importance)
	require.Len(t, libDep.Restrictions, 1)
	assert.True(t, libDep.Restrictions[0].Meets(&model.Implementation{Version: version.MustParse("1.5")}))
	assert.False(t, libDep.Restrictions[0].Meets(&model.Implementation{Version: version.MustParse("2")}))

	require.Len(t, app1.Requires, 2)
	base := app1.Requires[0]
	assert.Equal(t, model.Recommended, base.Importance)
	assert.Equal(t, []string{"testing"}, base.UseFlags)
	other := app1.Requires[1]
	assert.Equal(t, model.Restricts, other.Importance)
	require.Len(t, other.Restrictions, 1)
	assert.True(t, other.Restrictions[0].Meets(&model.Implementation{Version: version.MustParse("3.1")}))
	assert.False(t, other.Restrictions[0].Meets(&model.Implementation{Version: version.MustParse("3.1.0")}))

	require.Len(t, app1.Bindings, 2)
	assert.Equal(t, "environment", app1.Bindings[0].Kind)
	assert.Equal(t, "PATH", app1.Bindings[0].Name)
	assert.Equal(t, "prepend", app1.Bindings[0].Mode)
	assert.Equal(t, "executable-in-var", app1.Bindings[1].Kind)
	// An executable binding with no command attribute designates "run".
	assert.Equal(t, "run", app1.Bindings[1].Command)

	app2 := f.Implementations[1]
	assert.Equal(t, model.Testing, app2.Stability, "stability defaults to testing")
	assert.Empty(t, app2.OS)
	assert.Equal(t, "src", app2.Machine)
}

func TestParseReplacedBy(t *testing.T) {
	f, err := Parse([]byte(`<interface uri="https://example.com/old">
  <name>Old</name>
  <replaced-by interface="https://example.com/new"/>
</interface>`))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/new", f.ReplacedBy)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{"not xml", "hello"},
		{"relative uri", `<interface uri="example.com/x"><name>x</name></interface>`},
		{"missing impl id", `<interface uri="https://example.com/x"><implementation version="1"/></interface>`},
		{"bad version", `<interface uri="https://example.com/x"><implementation id="i" version="1.x"/></interface>`},
		{"bad stability", `<interface uri="https://example.com/x"><implementation id="i" version="1" stability="great"/></interface>`},
		{"bad arch", `<interface uri="https://example.com/x"><implementation id="i" version="1" arch="Linux"/></interface>`},
		{"bad dep uri", `<interface uri="https://example.com/x"><implementation id="i" version="1"><requires interface="nope"/></implementation></interface>`},
		{"bad importance", `<interface uri="https://example.com/x"><implementation id="i" version="1"><requires interface="https://example.com/y" importance="vital"/></implementation></interface>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.xml))
			assert.Error(t, err)
		})
	}
}
