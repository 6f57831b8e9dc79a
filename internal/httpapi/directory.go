package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/icontent-lms/go-icontent/activity"
)

// ErrNotFound is returned by a Directory when the requested course module
// or page does not exist.
var ErrNotFound = errors.New("httpapi: not found")

// Module is an icontent activity placed in a course.
type Module struct {
	Instance activity.Instance
	Context  activity.ModuleContext
}

// Directory resolves the rows an activity record takes snapshots of.
type Directory interface {
	Module(ctx context.Context, cmid int64) (Module, error)
	Page(ctx context.Context, cmid, pageID int64) (activity.Page, error)
}

var _ Directory = new(InMemoryDirectory)

// InMemoryDirectory is a thread-safe, in-memory Directory.
type InMemoryDirectory struct {
	mx      sync.RWMutex
	modules map[int64]Module
	pages   map[pageKey]activity.Page
}

type pageKey struct {
	cmid, pageID int64
}

// NewInMemoryDirectory returns an empty InMemoryDirectory.
func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{
		modules: make(map[int64]Module),
		pages:   make(map[pageKey]activity.Page),
	}
}

// Add registers a course module together with its pages.
// Pages are attached to the module and its instance.
func (d *InMemoryDirectory) Add(module Module, pages ...activity.Page) {
	d.mx.Lock()
	defer d.mx.Unlock()

	d.modules[module.Context.InstanceID] = module

	for _, page := range pages {
		page.CMID = module.Context.InstanceID
		page.ICContentID = module.Instance.ID
		d.pages[pageKey{cmid: page.CMID, pageID: page.ID}] = page
	}
}

// Module implements the httpapi.Directory interface.
func (d *InMemoryDirectory) Module(_ context.Context, cmid int64) (Module, error) {
	d.mx.RLock()
	defer d.mx.RUnlock()

	module, ok := d.modules[cmid]
	if !ok {
		return Module{}, fmt.Errorf("httpapi.InMemoryDirectory: course module %d, %w", cmid, ErrNotFound)
	}

	return module, nil
}

// Page implements the httpapi.Directory interface.
func (d *InMemoryDirectory) Page(_ context.Context, cmid, pageID int64) (activity.Page, error) {
	d.mx.RLock()
	defer d.mx.RUnlock()

	page, ok := d.pages[pageKey{cmid: cmid, pageID: pageID}]
	if !ok {
		return activity.Page{}, fmt.Errorf("httpapi.InMemoryDirectory: page %d of course module %d, %w", pageID, cmid, ErrNotFound)
	}

	return page, nil
}

type directorySeed struct {
	Modules []struct {
		CMID      int64  `yaml:"cmid"`
		ContextID int64  `yaml:"contextid"`
		Course    int64  `yaml:"course"`
		ID        int64  `yaml:"id"`
		Name      string `yaml:"name"`
		Intro     string `yaml:"intro"`
		Pages     []struct {
			ID      int64  `yaml:"id"`
			PageNum int    `yaml:"pagenum"`
			Title   string `yaml:"title"`
			Hidden  bool   `yaml:"hidden"`
		} `yaml:"pages"`
	} `yaml:"modules"`
}

// LoadDirectory reads a YAML document listing course modules and their
// pages into a new InMemoryDirectory:
//
//	modules:
//	  - cmid: 42
//	    contextid: 7
//	    course: 3
//	    id: 5
//	    name: Cell biology
//	    pages:
//	      - id: 99
//	        pagenum: 1
//	        title: Introduction
func LoadDirectory(r io.Reader) (*InMemoryDirectory, error) {
	var seed directorySeed

	if err := yaml.NewDecoder(r).Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("httpapi.LoadDirectory: failed to decode, %w", err)
	}

	d := NewInMemoryDirectory()

	for _, m := range seed.Modules {
		if m.CMID <= 0 || m.ID <= 0 {
			return nil, fmt.Errorf("httpapi.LoadDirectory: module %q needs positive cmid and id", m.Name)
		}

		pages := make([]activity.Page, 0, len(m.Pages))
		for _, p := range m.Pages {
			pages = append(pages, activity.Page{
				ID:      p.ID,
				PageNum: p.PageNum,
				Title:   p.Title,
				Hidden:  p.Hidden,
			})
		}

		d.Add(Module{
			Instance: activity.Instance{
				ID:     m.ID,
				Course: m.Course,
				Name:   m.Name,
				Intro:  m.Intro,
			},
			Context: activity.ModuleContext{
				ID:         m.ContextID,
				InstanceID: m.CMID,
				CourseID:   m.Course,
			},
		}, pages...)
	}

	return d, nil
}
