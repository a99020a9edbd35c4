package selections

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/launchpath/injector/model"
	"github.com/launchpath/injector/solve"
)

// filePermissions is the mode for written documents. 0600 keeps them
// private to the owner.
const filePermissions = 0o600

// ErrNotReady is returned by Build when the result still contains
// unresolved roles. Closest-match results are for diagnosis, not for
// persisting.
var ErrNotReady = errors.New("result is not ready")

// Document is a complete selections document.
type Document struct {
	// Interface is the root interface URI.
	Interface string

	// Command is the root command name, or empty.
	Command string

	// Selections holds one entry per resolved role, sorted by role.
	Selections []*Entry
}

// Entry is the persisted form of one selection.
type Entry struct {
	Interface string
	Source    bool
	ID        string
	Version   string
	FromFeed  string
	Main      string
	Commands  []*Command
	Requires  []*Requirement
	Bindings  []*Binding
	Digests   []string
}

// Command is a persisted command on a selection.
type Command struct {
	Name     string
	Path     string
	Requires []*Requirement
	Bindings []*Binding
}

// Binding is a persisted binding on a selection or one of its commands,
// in document order.
type Binding struct {
	Kind    string
	Name    string
	Insert  string
	Mode    string
	Command string
}

// Requirement is a persisted dependency edge.
type Requirement struct {
	Interface string
	Source    bool
	Versions  []string
}

// Build converts a ready result into a document. Volatile attributes
// that the next solve recomputes, like stability, are not persisted, and
// a main entry point superseded by an explicit run command is dropped.
func Build(res *solve.Result) (*Document, error) {
	if !res.Ready {
		return nil, ErrNotReady
	}

	doc := &Document{
		Interface: res.Requirement.Interface,
		Command:   res.Requirement.Command,
	}

	for _, role := range res.Roles() {
		sel := res.Selection(role)
		entry, err := buildEntry(role, sel)
		if err != nil {
			return nil, fmt.Errorf("while recording %s: %w", role, err)
		}
		doc.Selections = append(doc.Selections, entry)
	}
	return doc, nil
}

func buildEntry(role model.Role, sel *solve.Selection) (*Entry, error) {
	impl := sel.Impl
	if impl.IsPlaceholder() {
		return nil, ErrNotReady
	}

	entry := &Entry{
		Interface: role.Interface,
		Source:    role.Source,
		ID:        impl.ID,
		Version:   impl.Version.String(),
		FromFeed:  impl.FromFeed,
		Main:      impl.Main,
		Digests:   slices.Clone(impl.Digests),
	}
	slices.Sort(entry.Digests)

	for _, name := range sel.Commands {
		cmd := impl.Command(name)
		if cmd == nil {
			return nil, fmt.Errorf("selected command %q does not exist", name)
		}
		entry.Commands = append(entry.Commands, &Command{
			Name:     cmd.Name,
			Path:     cmd.Path,
			Requires: buildRequirements(cmd.Requires),
			Bindings: buildBindings(cmd.Bindings),
		})
		if name == "run" {
			// The run command supersedes the main attribute.
			entry.Main = ""
		}
	}

	entry.Requires = buildRequirements(impl.Requires)
	entry.Bindings = buildBindings(impl.Bindings)
	return entry, nil
}

func buildBindings(bs []model.Binding) []*Binding {
	var out []*Binding
	for _, b := range bs {
		out = append(out, &Binding{
			Kind:    b.Kind,
			Name:    b.Name,
			Insert:  b.Insert,
			Mode:    b.Mode,
			Command: b.Command,
		})
	}
	return out
}

// buildRequirements records the essential dependency edges. Optional and
// restriction-only edges are not persisted: the former may be absent
// from the result, the latter carry no selection of their own.
func buildRequirements(deps []model.Dependency) []*Requirement {
	var out []*Requirement
	for _, dep := range deps {
		if dep.Importance != model.Essential {
			continue
		}
		r := &Requirement{Interface: dep.Interface, Source: dep.Source}
		for _, restr := range dep.Restrictions {
			r.Versions = append(r.Versions, restr.String())
		}
		slices.Sort(r.Versions)
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b *Requirement) int {
		return strings.Compare(a.Interface, b.Interface)
	})
	return out
}

// Marshal serializes the document as XML. Output is byte-for-byte
// deterministic for equal documents.
func (d *Document) Marshal() ([]byte, error) {
	x := xmlSelections{
		Interface: d.Interface,
		Command:   d.Command,
	}
	for _, e := range d.Selections {
		x.Selections = append(x.Selections, toXMLSelection(e))
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(x); err != nil {
		return nil, fmt.Errorf("while encoding selections: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// WriteFile writes the document to path.
func (d *Document) WriteFile(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, filePermissions)
}

// WriteTo writes the document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	data, err := d.Marshal()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

type xmlSelections struct {
	XMLName    xml.Name       `xml:"selections"`
	Interface  string         `xml:"interface,attr"`
	Command    string         `xml:"command,attr,omitempty"`
	Selections []xmlSelection `xml:"selection"`
}

type xmlSelection struct {
	Interface    string           `xml:"interface,attr"`
	Source       bool             `xml:"source,attr,omitempty"`
	ID           string           `xml:"id,attr"`
	Version      string           `xml:"version,attr"`
	FromFeed     string           `xml:"from-feed,attr,omitempty"`
	Main         string           `xml:"main,attr,omitempty"`
	Commands     []xmlCommand     `xml:"command"`
	Requires     []xmlRequirement `xml:"requires"`
	Environments []xmlEnvironment `xml:"environment"`
	ExecVars     []xmlExecutable  `xml:"executable-in-var"`
	Digests      []xmlDigest      `xml:"manifest-digest"`
}

type xmlCommand struct {
	Name         string           `xml:"name,attr"`
	Path         string           `xml:"path,attr,omitempty"`
	Requires     []xmlRequirement `xml:"requires"`
	Environments []xmlEnvironment `xml:"environment"`
	ExecVars     []xmlExecutable  `xml:"executable-in-var"`
}

type xmlEnvironment struct {
	Name   string `xml:"name,attr"`
	Insert string `xml:"insert,attr,omitempty"`
	Mode   string `xml:"mode,attr,omitempty"`
}

type xmlExecutable struct {
	Name    string `xml:"name,attr"`
	Command string `xml:"command,attr,omitempty"`
}

type xmlRequirement struct {
	Interface string       `xml:"interface,attr"`
	Source    bool         `xml:"source,attr,omitempty"`
	Versions  []xmlVersion `xml:"version"`
}

type xmlVersion struct {
	Range string `xml:"range,attr"`
}

type xmlDigest struct {
	Value string `xml:"value,attr"`
}

func toXMLSelection(e *Entry) xmlSelection {
	x := xmlSelection{
		Interface: e.Interface,
		Source:    e.Source,
		ID:        e.ID,
		Version:   e.Version,
		FromFeed:  e.FromFeed,
		Main:      e.Main,
	}
	for _, c := range e.Commands {
		xc := xmlCommand{
			Name:     c.Name,
			Path:     c.Path,
			Requires: toXMLRequirements(c.Requires),
		}
		xc.Environments, xc.ExecVars = toXMLBindings(c.Bindings)
		x.Commands = append(x.Commands, xc)
	}
	x.Requires = toXMLRequirements(e.Requires)
	x.Environments, x.ExecVars = toXMLBindings(e.Bindings)
	for _, d := range e.Digests {
		x.Digests = append(x.Digests, xmlDigest{Value: d})
	}
	return x
}

func toXMLBindings(bs []*Binding) (envs []xmlEnvironment, execs []xmlExecutable) {
	for _, b := range bs {
		switch b.Kind {
		case "environment":
			envs = append(envs, xmlEnvironment{Name: b.Name, Insert: b.Insert, Mode: b.Mode})
		case "executable-in-var":
			execs = append(execs, xmlExecutable{Name: b.Name, Command: b.Command})
		}
	}
	return envs, execs
}

func toXMLRequirements(reqs []*Requirement) []xmlRequirement {
	var out []xmlRequirement
	for _, r := range reqs {
		xr := xmlRequirement{Interface: r.Interface, Source: r.Source}
		for _, v := range r.Versions {
			xr.Versions = append(xr.Versions, xmlVersion{Range: v})
		}
		out = append(out, xr)
	}
	return out
}
