package fmtcompiler

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// WriteHeader renders the `#define NAME <id>` companion header for every
// declared filter and named message, and replaces path only if the
// generated content differs from what's already on disk.
func (c *Compiler) WriteHeader(path string) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Generated by the rtemsg format compiler. Do not edit.\n\n")

	type named struct {
		name string
		id   int
	}

	var filters []named
	for name := range c.filterNames() {
		f, _ := c.symtab.Filter(name)
		filters = append(filters, named{f.Name, f.Index})
	}
	sort.Slice(filters, func(i, j int) bool { return filters[i].name < filters[j].name })
	for _, f := range filters {
		fmt.Fprintf(&buf, "#define %s %d\n", f.name, f.id)
	}

	if len(filters) > 0 {
		buf.WriteByte('\n')
	}

	var msgs []named
	for id, name := range c.messageIDs() {
		msgs = append(msgs, named{name, id})
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].id < msgs[j].id })
	for _, m := range msgs {
		fmt.Fprintf(&buf, "#define FMT_%s %d\n", m.name, m.id)
	}

	return writeIfChanged(path, buf.Bytes())
}

// filterNames reports the set of declared filter names. Table doesn't
// expose its internal map directly, so the compiler tracks names as they
// are declared.
func (c *Compiler) filterNames() map[string]struct{} {
	return c.declaredFilters
}

// messageIDs maps each format ID that starts a message's reservation to
// that message's name.
func (c *Compiler) messageIDs() map[int]string {
	return c.msgStartIDs
}

func writeIfChanged(path string, content []byte) error {
	newHash := xxhash.Sum64(content)

	if existing, err := os.ReadFile(path); err == nil {
		if xxhash.Sum64(existing) == newHash {
			return nil
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
