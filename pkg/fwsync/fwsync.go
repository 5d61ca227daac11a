// Package fwsync reconciles desired service sets against the on-disk and
// live firewalld state: writing/removing local service files and adding or
// removing services from active zones, through the external control
// program.
package fwsync

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/zoneforge/fwctl/pkg/model"
	"github.com/zoneforge/fwctl/pkg/svcfile"
	"github.com/zoneforge/fwctl/pkg/util"
)

// ControlProgram is the external firewall control program surface the
// synchronizer drives. *fwcmd.Runner satisfies this interface.
type ControlProgram interface {
	ListAllZones(ctx context.Context) (map[string][]string, error)
	AddService(ctx context.Context, zone, service string) error
	RemoveService(ctx context.Context, zone, service string) error
	Reload(ctx context.Context) error
}

// Synchronizer reconciles desired service sets against firewalld. Each
// Synchronizer holds its own lock, so concurrent commits on the same
// Synchronizer are strictly ordered; separate Synchronizers do not share a
// lock. The parse cache is independent and has its own lock.
type Synchronizer struct {
	mu sync.Mutex

	control   ControlProgram
	systemDir string
	localDir  string
	cache     *svcfile.Cache
}

// New constructs a Synchronizer driving control and managing the given
// system and local service directories.
func New(control ControlProgram, systemDir, localDir string) *Synchronizer {
	return &Synchronizer{
		control:   control,
		systemDir: systemDir,
		localDir:  localDir,
		cache:     svcfile.NewCache(),
	}
}

// templateNames returns the template name of every service set;
// matchesTemplate uses them to recognize the name and "template-k" services
// this system previously managed.
func templateNames(sets []*model.ServiceSet) []string {
	var names []string
	for _, ss := range sets {
		names = append(names, ss.Template().Name())
	}
	return names
}

func matchesTemplate(serviceName string, templates []string) bool {
	for _, tmpl := range templates {
		if serviceName == tmpl {
			return true
		}
		if strings.HasPrefix(serviceName, tmpl+"-") {
			if _, err := strconv.Atoi(serviceName[len(tmpl)+1:]); err == nil {
				return true
			}
		}
	}
	return false
}

// Commit reconciles sets against the given active zones: step order follows
// the synchronizer's ordering guarantees — removals precede writes, writes
// precede the first reload, the first reload precedes additions, and
// additions precede the second reload.
func (s *Synchronizer) Commit(ctx context.Context, sets []*model.ServiceSet, zones []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := refuseDuplicateTemplates(sets); err != nil {
		return err
	}

	byName := make(map[string]*model.Service)
	var desiredOrder []string
	for _, ss := range sets {
		for _, svc := range ss.Services() {
			if _, exists := byName[svc.Name()]; !exists {
				desiredOrder = append(desiredOrder, svc.Name())
			}
			byName[svc.Name()] = svc
		}
	}
	desired := make(map[string]bool, len(byName))
	for name := range byName {
		desired[name] = true
	}

	templates := templateNames(sets)

	current, err := s.control.ListAllZones(ctx)
	if err != nil {
		return err
	}

	changed := false

	// Step 4: remove managed services no longer desired.
	for _, zone := range zones {
		for _, svcName := range current[zone] {
			if desired[svcName] {
				continue
			}
			if !matchesTemplate(svcName, templates) {
				continue
			}
			if err := s.control.RemoveService(ctx, zone, svcName); err != nil {
				return err
			}
			changed = true
		}
	}

	// Step 5: delete stale "template-k.xml" local files.
	removedFiles, err := s.pruneLocalFiles(templates, desired)
	if err != nil {
		return err
	}
	changed = changed || removedFiles

	// Step 6: write or prune local files for every desired service.
	wroteFiles, err := s.writeDesiredFiles(desiredOrder, byName, templates)
	if err != nil {
		return err
	}
	changed = changed || wroteFiles

	// Step 7: reload before additions so zone additions reference existing
	// service definitions.
	if changed {
		if err := s.control.Reload(ctx); err != nil {
			return err
		}
	}

	// Step 8: add missing desired services per zone.
	added := false
	for _, zone := range zones {
		present := make(map[string]bool)
		for _, name := range current[zone] {
			present[name] = true
		}
		for _, name := range desiredOrder {
			if present[name] {
				continue
			}
			if err := s.control.AddService(ctx, zone, name); err != nil {
				return err
			}
			added = true
		}
	}

	// Step 9: reload after additions.
	if added {
		if err := s.control.Reload(ctx); err != nil {
			return err
		}
	}

	return nil
}

func refuseDuplicateTemplates(sets []*model.ServiceSet) error {
	seen := make(map[string]bool)
	for _, ss := range sets {
		name := ss.Template().Name()
		if seen[name] {
			return util.NewValidationError("duplicate template name across input sets: " + name)
		}
		seen[name] = true
	}
	return nil
}

// pruneLocalFiles deletes any "<template>-<k>.xml" file in the local
// directory that is no longer a desired service, for any input template.
func (s *Synchronizer) pruneLocalFiles(templates []string, desired map[string]bool) (bool, error) {
	entries, err := os.ReadDir(s.localDir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	changed := false
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".xml")
		if name == entry.Name() {
			continue // not an .xml file
		}
		if !isTemplateVariant(name, templates) {
			continue
		}
		if desired[name] {
			continue
		}
		path := filepath.Join(s.localDir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return changed, err
		}
		s.cache.Invalidate(path)
		changed = true
	}
	return changed, nil
}

func isTemplateVariant(name string, templates []string) bool {
	for _, tmpl := range templates {
		if name == tmpl {
			continue // the template's own file is handled separately in writeDesiredFiles
		}
		if strings.HasPrefix(name, tmpl+"-") {
			if _, err := strconv.Atoi(name[len(tmpl)+1:]); err == nil {
				return true
			}
		}
	}
	return false
}

// writeDesiredFiles writes each desired service atomically, unless its name
// equals its template and its content exactly equals the system-provided
// service, in which case any local override is removed instead.
func (s *Synchronizer) writeDesiredFiles(order []string, byName map[string]*model.Service, templates []string) (bool, error) {
	changed := false
	for _, name := range order {
		svc := byName[name]
		localPath := filepath.Join(s.localDir, name+".xml")

		if isTemplateName(name, templates) {
			systemPath := filepath.Join(s.systemDir, name+".xml")
			systemSvc, err := s.cache.LoadFile(name, systemPath)
			if err != nil {
				return changed, err
			}
			if systemSvc != nil && systemSvc.Equal(svc) {
				if _, err := os.Stat(localPath); err == nil {
					if err := os.Remove(localPath); err != nil {
						return changed, err
					}
					s.cache.Invalidate(localPath)
					changed = true
				}
				continue
			}
		}

		if err := writeAtomic(localPath, svc); err != nil {
			return changed, err
		}
		s.cache.Invalidate(localPath)
		changed = true
	}
	return changed, nil
}

func isTemplateName(name string, templates []string) bool {
	for _, tmpl := range templates {
		if name == tmpl {
			return true
		}
	}
	return false
}

// writeAtomic writes svc's XML document to a sibling temp file, then renames
// it over path, so concurrent readers never observe a partial write.
func writeAtomic(path string, svc *model.Service) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".fwctl-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := svcfile.Emit(svc, tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// LoadServiceSet loads a previously-committed service set from disk: the
// template plus every local override/additional file matching
// "name[-k].xml". A "<template>-<k>.xml" file present in the system
// directory is a fatal configuration conflict.
func (s *Synchronizer) LoadServiceSet(templateName string) (*model.ServiceSet, error) {
	template, err := s.loadOne(templateName)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, nil
	}

	var services []*model.Service
	services = append(services, template)

	for k := 2; ; k++ {
		name := templateName + "-" + strconv.Itoa(k)
		systemPath := filepath.Join(s.systemDir, name+".xml")
		if _, err := os.Stat(systemPath); err == nil {
			return nil, util.NewConflictError(systemPath)
		}

		svc, err := s.loadOne(name)
		if err != nil {
			return nil, err
		}
		if svc == nil {
			break
		}
		services = append(services, svc)
	}

	return model.NewServiceSet(template, services), nil
}

// loadOne loads a single named service, preferring the local override and
// falling back to the system-provided file.
func (s *Synchronizer) loadOne(name string) (*model.Service, error) {
	localPath := filepath.Join(s.localDir, name+".xml")
	svc, err := s.cache.LoadFile(name, localPath)
	if err != nil {
		return nil, err
	}
	if svc != nil {
		return svc, nil
	}

	systemPath := filepath.Join(s.systemDir, name+".xml")
	return s.cache.LoadFile(name, systemPath)
}
