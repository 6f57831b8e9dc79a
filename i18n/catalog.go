package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// DefaultLocale is the locale every namespace must be defined in,
// used as fallback for other locales.
const DefaultLocale = "en"

//go:embed locales/*/*.yaml
var embedded embed.FS

type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

// Catalog holds every localized string loaded from a set of locale files,
// laid out as locales/<locale>/<namespace>.yaml.
type Catalog struct {
	fallback language.Tag
	builder  *catalog.Builder
	tags     []language.Tag
	matcher  language.Matcher
	keys     map[language.Tag]map[string]struct{}
}

// LoadEmbedded loads the locale files shipped with this package.
func LoadEmbedded() (*Catalog, error) {
	return LoadFromFS(embedded)
}

// LoadFromFS loads locale files from the provided filesystem.
func LoadFromFS(fsys fs.FS) (*Catalog, error) {
	paths, err := fs.Glob(fsys, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("i18n.LoadFromFS: failed to glob locale files, %w", err)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("i18n.LoadFromFS: no locale files found")
	}

	sort.Strings(paths)

	fallback := language.MustParse(DefaultLocale)
	c := &Catalog{
		fallback: fallback,
		builder:  catalog.NewBuilder(catalog.Fallback(fallback)),
		keys:     make(map[language.Tag]map[string]struct{}),
	}

	for _, p := range paths {
		if err := c.addFile(fsys, p); err != nil {
			return nil, fmt.Errorf("i18n.LoadFromFS: %w", err)
		}
	}

	if _, ok := c.keys[fallback]; !ok {
		return nil, fmt.Errorf("i18n.LoadFromFS: default locale %q is not defined", DefaultLocale)
	}

	c.tags = c.builder.Languages()
	c.matcher = language.NewMatcher(c.tags)

	return c, nil
}

func (c *Catalog) addFile(fsys fs.FS, p string) error {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return fmt.Errorf("failed to read %s, %w", p, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse %s, %w", p, err)
	}

	localeFromPath := path.Base(path.Dir(p))
	namespaceFromPath := strings.TrimSuffix(path.Base(p), path.Ext(p))

	if file.Locale != localeFromPath {
		return fmt.Errorf("%s: locale %q must match path locale %q", p, file.Locale, localeFromPath)
	}

	if file.Namespace != namespaceFromPath {
		return fmt.Errorf("%s: namespace %q must match file name %q", p, file.Namespace, namespaceFromPath)
	}

	if len(file.Messages) == 0 {
		return fmt.Errorf("%s: no messages defined", p)
	}

	tag, err := language.Parse(file.Locale)
	if err != nil {
		return fmt.Errorf("%s: invalid locale, %w", p, err)
	}

	keys, ok := c.keys[tag]
	if !ok {
		keys = make(map[string]struct{})
		c.keys[tag] = keys
	}

	for key, value := range file.Messages {
		id := messageID(key, file.Namespace)
		if _, exists := keys[id]; exists {
			return fmt.Errorf("%s: duplicate key %q", p, key)
		}

		// Strings are stored as printer formats, and rendered without arguments.
		if err := c.builder.SetString(tag, id, strings.ReplaceAll(value, "%", "%%")); err != nil {
			return fmt.Errorf("%s: failed to register key %q, %w", p, key, err)
		}

		keys[id] = struct{}{}
	}

	return nil
}

// Locales returns the locales the Catalog has strings for.
func (c *Catalog) Locales() []language.Tag {
	tags := make([]language.Tag, len(c.tags))
	copy(tags, c.tags)

	return tags
}

// Translator returns a Translator for the locale that best matches the
// requested one. Unknown locales resolve to DefaultLocale.
func (c *Catalog) Translator(locale string) Translator {
	tag := c.fallback

	if requested, err := language.Parse(locale); err == nil {
		if _, index, confidence := c.matcher.Match(requested); confidence != language.No {
			tag = c.tags[index]
		}
	}

	return localized{
		catalog:  c,
		tag:      tag,
		printer:  message.NewPrinter(tag, message.Catalog(c.builder)),
		fallback: message.NewPrinter(c.fallback, message.Catalog(c.builder)),
	}
}

// String implements the i18n.Translator interface using DefaultLocale.
func (c *Catalog) String(key, namespace string) (string, error) {
	return c.Translator(DefaultLocale).String(key, namespace)
}

func (c *Catalog) has(tag language.Tag, id string) bool {
	_, ok := c.keys[tag][id]
	return ok
}

type localized struct {
	catalog  *Catalog
	tag      language.Tag
	printer  *message.Printer
	fallback *message.Printer
}

func (l localized) String(key, namespace string) (string, error) {
	id := messageID(key, namespace)

	switch {
	case l.catalog.has(l.tag, id):
		return l.printer.Sprintf(message.Key(id, "")), nil
	case l.catalog.has(l.catalog.fallback, id):
		return l.fallback.Sprintf(message.Key(id, "")), nil
	default:
		return "", missingString(key, namespace)
	}
}

func messageID(key, namespace string) string {
	return namespace + ":" + key
}
