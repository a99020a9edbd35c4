// Package feed parses feed documents: the XML metadata files that
// describe an interface and its candidate implementations.
//
// Only the parts the solver consumes are modelled. Fetching, caching and
// signature checking of feeds happen upstream of this package.
package feed

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/launchpath/injector/model"
	"github.com/launchpath/injector/version"
)

// Feed is one parsed feed document.
type Feed struct {
	// URI is the interface this feed describes.
	URI string

	// Name is the short human-readable interface name.
	Name string

	// ReplacedBy is the URI of the interface that deprecates this one,
	// or empty. Candidates for a replaced interface come from the
	// replacement.
	ReplacedBy string

	// Implementations are the feed's candidates, in document order.
	Implementations []*model.Implementation
}

// ParseFile reads and parses a feed document from disk.
func ParseFile(path string) (*Feed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("while reading feed %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("while parsing feed %s: %w", path, err)
	}
	return f, nil
}

// Parse parses feed XML.
func Parse(data []byte) (*Feed, error) {
	var doc xmlFeed
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("while decoding feed XML: %w", err)
	}
	if err := model.ValidateInterface(doc.URI); err != nil {
		return nil, err
	}

	f := &Feed{
		URI:        doc.URI,
		Name:       strings.TrimSpace(doc.Name),
		ReplacedBy: doc.ReplacedBy.Interface,
	}

	for _, xi := range doc.Implementations {
		impl, err := convertImplementation(xi, doc.URI)
		if err != nil {
			return nil, fmt.Errorf("while reading implementation %q: %w", xi.ID, err)
		}
		f.Implementations = append(f.Implementations, impl)
	}
	return f, nil
}

// xmlFeed mirrors the on-disk feed document structure.
type xmlFeed struct {
	XMLName         xml.Name      `xml:"interface"`
	URI             string        `xml:"uri,attr"`
	Name            string        `xml:"name"`
	ReplacedBy      xmlReplacedBy `xml:"replaced-by"`
	Implementations []xmlImpl     `xml:"implementation"`
}

type xmlReplacedBy struct {
	Interface string `xml:"interface,attr"`
}

type xmlImpl struct {
	ID        string       `xml:"id,attr"`
	Version   string       `xml:"version,attr"`
	Stability string       `xml:"stability,attr"`
	Arch      string       `xml:"arch,attr"`
	Main      string       `xml:"main,attr"`
	SelfTest  string       `xml:"self-test,attr"`
	Commands  []xmlCommand `xml:"command"`
	Requires  []xmlRequire `xml:"requires"`
	Restricts []xmlRequire `xml:"restricts"`
	Bindings  []xmlBinding `xml:"environment"`
	ExecVars  []xmlBinding `xml:"executable-in-var"`
	Digests   []xmlDigest  `xml:"manifest-digest"`

	// Extra catches attributes not modelled explicitly (licence,
	// released and the like), kept opaque on the implementation.
	Extra []xml.Attr `xml:",any,attr"`
}

type xmlCommand struct {
	Name      string       `xml:"name,attr"`
	Path      string       `xml:"path,attr"`
	Requires  []xmlRequire `xml:"requires"`
	Restricts []xmlRequire `xml:"restricts"`
	Bindings  []xmlBinding `xml:"environment"`
	ExecVars  []xmlBinding `xml:"executable-in-var"`
}

type xmlRequire struct {
	Interface  string       `xml:"interface,attr"`
	Source     bool         `xml:"source,attr"`
	Importance string       `xml:"importance,attr"`
	Use        string       `xml:"use,attr"`
	Versions   []xmlVersion `xml:"version"`
	// ExecVars on a dependency designate commands that must exist on
	// whichever implementation is chosen for the target interface.
	ExecVars []xmlBinding `xml:"executable-in-var"`
}

type xmlVersion struct {
	NotBefore string `xml:"not-before,attr"`
	Before    string `xml:"before,attr"`
	Exactly   string `xml:"version,attr"`
}

type xmlBinding struct {
	Name    string `xml:"name,attr"`
	Insert  string `xml:"insert,attr"`
	Mode    string `xml:"mode,attr"`
	Command string `xml:"command,attr"`
}

type xmlDigest struct {
	SHA256 string `xml:"sha256,attr"`
}

func convertImplementation(xi xmlImpl, feedURI string) (*model.Implementation, error) {
	if xi.ID == "" {
		return nil, fmt.Errorf("missing id attribute")
	}
	v, err := version.Parse(xi.Version)
	if err != nil {
		return nil, err
	}

	stability := model.Testing
	if xi.Stability != "" {
		stability, err = model.ParseStability(xi.Stability)
		if err != nil {
			return nil, err
		}
	}

	osName, machine, err := parseArch(xi.Arch)
	if err != nil {
		return nil, err
	}

	impl := &model.Implementation{
		ID:        xi.ID,
		Version:   v,
		Stability: stability,
		OS:        osName,
		Machine:   machine,
		FromFeed:  feedURI,
		Main:      xi.Main,
		SelfTest:  xi.SelfTest,
	}

	if len(xi.Extra) > 0 {
		impl.Attrs = make(map[string]string, len(xi.Extra))
		for _, a := range xi.Extra {
			impl.Attrs[a.Name.Local] = a.Value
		}
	}

	for _, xc := range xi.Commands {
		if xc.Name == "" {
			return nil, fmt.Errorf("command without name")
		}
		cmd := &model.Command{Name: xc.Name, Path: xc.Path}
		cmd.Requires, err = convertDeps(xc.Requires, xc.Restricts)
		if err != nil {
			return nil, err
		}
		cmd.Bindings = convertBindings(xc.Bindings, xc.ExecVars)
		if impl.Commands == nil {
			impl.Commands = make(map[string]*model.Command)
		}
		impl.Commands[xc.Name] = cmd
	}

	impl.Requires, err = convertDeps(xi.Requires, xi.Restricts)
	if err != nil {
		return nil, err
	}
	impl.Bindings = convertBindings(xi.Bindings, xi.ExecVars)

	for _, d := range xi.Digests {
		if d.SHA256 != "" {
			impl.Digests = append(impl.Digests, "sha256="+d.SHA256)
		}
	}

	return impl, nil
}

func convertDeps(requires, restricts []xmlRequire) ([]model.Dependency, error) {
	var deps []model.Dependency
	for _, xr := range requires {
		dep, err := convertDep(xr, false)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	for _, xr := range restricts {
		dep, err := convertDep(xr, true)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

func convertDep(xr xmlRequire, restricts bool) (model.Dependency, error) {
	if err := model.ValidateInterface(xr.Interface); err != nil {
		return model.Dependency{}, err
	}

	importance := model.Restricts
	if !restricts {
		var err error
		importance, err = model.ParseImportance(xr.Importance)
		if err != nil {
			return model.Dependency{}, err
		}
	}

	dep := model.Dependency{
		Interface:  xr.Interface,
		Source:     xr.Source,
		Importance: importance,
	}
	if xr.Use != "" {
		dep.UseFlags = strings.Fields(xr.Use)
	}
	for _, b := range xr.ExecVars {
		cmd := b.Command
		if cmd == "" {
			cmd = "run"
		}
		dep.RequiredCommands = append(dep.RequiredCommands, cmd)
	}

	for _, xv := range xr.Versions {
		r, err := convertVersionRestriction(xv)
		if err != nil {
			return model.Dependency{}, err
		}
		dep.Restrictions = append(dep.Restrictions, r)
	}
	return dep, nil
}

func convertVersionRestriction(xv xmlVersion) (model.Restriction, error) {
	if xv.Exactly != "" {
		v, err := version.Parse(xv.Exactly)
		if err != nil {
			return nil, err
		}
		return model.VersionRestriction{Range: version.Exactly(v)}, nil
	}

	var r version.Range
	if xv.NotBefore != "" {
		v, err := version.Parse(xv.NotBefore)
		if err != nil {
			return nil, err
		}
		r.NotBefore = v
	}
	if xv.Before != "" {
		v, err := version.Parse(xv.Before)
		if err != nil {
			return nil, err
		}
		r.Before = v
	}
	return model.VersionRestriction{Range: r}, nil
}

func convertBindings(envs, execVars []xmlBinding) []model.Binding {
	var out []model.Binding
	for _, b := range envs {
		out = append(out, model.Binding{
			Kind:    "environment",
			Name:    b.Name,
			Insert:  b.Insert,
			Mode:    b.Mode,
			Command: b.Command,
		})
	}
	for _, b := range execVars {
		cmd := b.Command
		if cmd == "" {
			cmd = "run"
		}
		out = append(out, model.Binding{
			Kind:    "executable-in-var",
			Name:    b.Name,
			Command: cmd,
		})
	}
	return out
}

// parseArch splits an "OS-Machine" arch attribute. "*" on either side
// means any. An empty attribute means any OS and machine.
func parseArch(s string) (os, machine string, err error) {
	if s == "" {
		return "", "", nil
	}
	osPart, machinePart, found := strings.Cut(s, "-")
	if !found {
		return "", "", fmt.Errorf("bad arch %q: want OS-Machine", s)
	}
	if osPart != "*" {
		os = osPart
	}
	if machinePart != "*" {
		machine = machinePart
	}
	return os, machine, nil
}
