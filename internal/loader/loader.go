// Package loader implements spec.md §4.1: turning a virtual directory into a
// tree of parsed, unresolved Repositories, recursively following manifest
// dependencies with cycle and depth protection. Loader performs no
// cross-file resolution (internal/resolver owns that); it only discovers,
// reads, and parses files, and resolves the dependency graph's shape.
package loader

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/otelconv/weaver/internal/provenance"
	"github.com/otelconv/weaver/internal/registry"
	"github.com/otelconv/weaver/internal/semconv"
	"github.com/otelconv/weaver/internal/vdir"
	"github.com/otelconv/weaver/internal/werror"
)

// ManifestFileName is the well-known manifest file at a registry root.
const ManifestFileName = "registry_manifest.yaml"

// Options configures a Load call.
type Options struct {
	// Resolver turns a vdir.Path into a local filesystem root. Defaults to
	// vdir.DefaultResolver{} (LocalFolder only) when nil.
	Resolver vdir.SourceResolver
	// Validators, if non-nil, schema-validate every parsed file.
	Validators *semconv.ValidatorSet
	// MaxDepth overrides MaxDependencyDepth when non-zero.
	MaxDepth int
	// FetchResolvedSchema fetches and decodes a pre-resolved schema declared
	// via manifest.resolved_schema_uri. Nil disables the short-circuit and
	// causes such a manifest to fall back to normal loading.
	FetchResolvedSchema func(ctx context.Context, uri string) (*registry.ResolvedRegistry, error)
	// Warnings receives Normalize()-style warnings. Defaults to io.Discard.
	Warnings io.Writer
}

func (o Options) maxDepth() int {
	if o.MaxDepth > 0 {
		return o.MaxDepth
	}
	return MaxDependencyDepth
}

func (o Options) resolver() vdir.SourceResolver {
	if o.Resolver != nil {
		return o.Resolver
	}
	return vdir.DefaultResolver{}
}

func (o Options) warnings() io.Writer {
	if o.Warnings != nil {
		return o.Warnings
	}
	return io.Discard
}

// Repository is one loaded registry: its own parsed files plus, if declared,
// a single loaded dependency (spec.md §9: multi-dependency registries are
// unsupported, per the original's restriction).
type Repository struct {
	RegistryID string
	RootPath   string
	Manifest   *semconv.Manifest
	Specs      []*semconv.SemConvSpec

	// Dependency is the single recursively-loaded dependency, if the
	// manifest declared one.
	Dependency *Repository

	// Resolved is populated instead of Specs/Dependency when the manifest
	// declares resolved_schema_uri and Options.FetchResolvedSchema is set.
	Resolved *registry.ResolvedRegistry
}

// AllSpecs flattens this repository and its dependency chain's specs,
// dependency-first so that later entries can override earlier ones during
// resolution (spec.md §4.2's extends/ref precedence flows dependency → root).
func (r *Repository) AllSpecs() []*semconv.SemConvSpec {
	if r == nil {
		return nil
	}
	var out []*semconv.SemConvSpec
	out = append(out, r.Dependency.AllSpecs()...)
	out = append(out, r.Specs...)
	return out
}

// Load loads the registry rooted at root, recursively following its
// manifest's dependency chain. Fatal errors (unresolvable source, exceeded
// depth, a dependency cycle, a manifest that fails validation, or every file
// in a registry failing to parse) abort the whole load; individual file
// parse errors are accumulated as non-fatal.
func Load(ctx context.Context, root vdir.Path, opts Options) werror.Result[*Repository] {
	return loadChain(ctx, root, opts, 0, nil)
}

func loadChain(ctx context.Context, p vdir.Path, opts Options, depth int, chain []string) werror.Result[*Repository] {
	if depth >= opts.maxDepth() {
		return werror.FatalErr[*Repository](&MaximumDependencyDepthError{Registry: p.LocalPath})
	}

	localRoot, err := opts.resolver().Resolve(p)
	if err != nil {
		return werror.FatalErr[*Repository](werror.New(werror.KindIO, p.LocalPath, fmt.Errorf("resolving virtual directory: %w", err)))
	}

	manifestPath := filepath.Join(localRoot, ManifestFileName)
	manifest, err := readManifest(manifestPath)
	if err != nil {
		return werror.FatalErr[*Repository](werror.New(werror.KindLoader, manifestPath, err))
	}
	manifest.Normalize(opts.warnings())
	if err := manifest.Validate(); err != nil {
		return werror.FatalErr[*Repository](werror.New(werror.KindLoader, manifestPath, err))
	}

	registryID := manifest.SchemaURL
	if registryID == "" {
		registryID = localRoot
	}
	for _, seen := range chain {
		if seen == registryID {
			return werror.FatalErr[*Repository](&CircularDependencyError{
				RegistryID: registryID,
				Chain:      append(append([]string{}, chain...), registryID),
			})
		}
	}
	chain = append(chain, registryID)

	if manifest.ResolvedSchemaURI != "" && opts.FetchResolvedSchema != nil {
		resolved, err := opts.FetchResolvedSchema(ctx, manifest.ResolvedSchemaURI)
		if err != nil {
			return werror.FatalErr[*Repository](werror.New(werror.KindIO, manifest.ResolvedSchemaURI, fmt.Errorf("fetching pre-resolved schema: %w", err)))
		}
		return werror.Ok(&Repository{RegistryID: registryID, RootPath: localRoot, Manifest: manifest, Resolved: resolved})
	}

	specs, nonFatal, err := walkAndParse(ctx, localRoot, registryID, opts)
	if err != nil {
		return werror.FatalErr[*Repository](err)
	}

	repo := &Repository{RegistryID: registryID, RootPath: localRoot, Manifest: manifest, Specs: specs}

	if len(manifest.Dependencies) == 1 {
		dep := manifest.Dependencies[0]
		depPath := vdir.LocalFolder(dep.RegistryPath)
		if dep.RegistryPath == "" {
			depPath = vdir.RemoteArchive(dep.SchemaURL, "")
		}
		depResult := loadChain(ctx, depPath, opts, depth+1, chain)
		if depResult.IsFatal() {
			return werror.FatalErr[*Repository](depResult.Fatal)
		}
		repo.Dependency = depResult.Value
		if depResult.HasNonFatals() {
			nonFatal.Add(depResult.NonFatal.Err())
		}
	}

	if nonFatal.Len() > 0 {
		return werror.OkWithNonFatals(repo, nonFatal)
	}
	return werror.Ok(repo)
}

func readManifest(path string) (*semconv.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m semconv.Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// walkAndParse walks localRoot in parallel, parsing every candidate file and
// accumulating per-file errors as non-fatal. It returns a fatal error only
// if the walk itself fails or no file parses successfully at all.
func walkAndParse(ctx context.Context, localRoot, registryID string, opts Options) ([]*semconv.SemConvSpec, *werror.Compound, error) {
	var paths []string
	err := filepath.WalkDir(localRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() != "." && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if shouldSkip(path, localRoot) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, nil, werror.New(werror.KindIO, localRoot, fmt.Errorf("walking registry: %w", err))
	}

	specs := make([]*semconv.SemConvSpec, len(paths))
	parseErrs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			data, err := os.ReadFile(path)
			if err != nil {
				parseErrs[i] = werror.New(werror.KindIO, path, err)
				return nil
			}
			rel, _ := filepath.Rel(localRoot, path)
			prov := provenance.New(registryID, rel)
			var fileFormat string
			if opts.Validators != nil {
				fileFormat = fileFormatHint(data)
			}
			spec, err := semconv.Parse(data, prov, semconv.ParseOptions{Validators: opts.Validators, FileFormat: fileFormat})
			if err != nil {
				parseErrs[i] = werror.New(werror.KindParse, path, err)
				return nil
			}
			specs[i] = spec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, werror.New(werror.KindLoader, localRoot, err)
	}

	nonFatal := &werror.Compound{}
	var out []*semconv.SemConvSpec
	for i, spec := range specs {
		if parseErrs[i] != nil {
			nonFatal.Add(parseErrs[i])
			continue
		}
		out = append(out, spec)
	}
	if len(out) == 0 && len(paths) > 0 {
		return nil, nil, werror.New(werror.KindLoader, localRoot, ErrNoFilesParsed)
	}
	return out, nonFatal, nil
}

func shouldSkip(path, root string) bool {
	base := filepath.Base(path)
	if base == ManifestFileName || base == "schema-next.yaml" {
		return true
	}
	if strings.HasPrefix(base, ".") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(base))
	return ext != ".yaml" && ext != ".yml"
}

// fileFormatHint sniffs a top-level file_format key without fully decoding,
// so the loader can pick a versioned/unversioned validator before parsing.
func fileFormatHint(data []byte) string {
	const key = "file_format:"
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, key) {
			return strings.Trim(strings.TrimSpace(trimmed[len(key):]), `"'`)
		}
	}
	return ""
}
