package assets

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// Watched shader sources live here, relative to the asset root.
const shaderDir = "shaders"

const shaderQueueSize = 16

type AssetInfo struct {
	ID         uuid.UUID
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

/**
 * @brief Indexes the files under the asset root and loads textures, models
 * and shader sources from it. When watching is enabled, edits to
 * shaders/*.wgsl are reported on ShaderChanges.
 */
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	shaders  chan string
}

// NewAssetManager roots the manager at the first directory of cfg.Dirs
// that exists.
func NewAssetManager(cfg config.AssetsConfig) (*AssetManager, error) {
	root, err := resolveRoot(cfg.Dirs)
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		root:    root,
		assets:  make(map[string]AssetInfo),
		loaders: make(map[metadata.ResourceType]Loader),
		shaders: make(chan string, shaderQueueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	// Register loaders
	am.registerLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(metadata.ResourceTypeImage, &loaders.TextureLoader{})
	am.registerLoader(metadata.ResourceTypeMaterial, &loaders.MaterialLoader{})
	am.registerLoader(metadata.ResourceTypeModel, &loaders.ModelLoader{})

	if !cfg.Watch {
		close(am.stopped)
		if err := am.index(root); err != nil {
			return nil, err
		}
		core.LogInfo("Asset manager rooted at %s (%d assets).", root, am.count())
		return am, nil
	}

	am.fsnotify, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := am.watchRecursive(root); err != nil {
		am.fsnotify.Close()
		return nil, err
	}
	go am.start()

	core.LogInfo("Asset manager rooted at %s (%d assets), watching for changes.", root, am.count())
	return am, nil
}

func resolveRoot(dirs []string) (string, error) {
	for _, d := range dirs {
		if s, err := os.Stat(d); err == nil && s.IsDir() {
			return d, nil
		}
	}
	return "", &core.AssetError{Name: strings.Join(dirs, ", "), Err: core.ErrAssetNotFound}
}

func (am *AssetManager) Root() string {
	return am.root
}

// ShaderChanges yields the name of a shader, without extension, each time
// its source under shaders/ is written. Events are dropped while the queue
// is full.
func (am *AssetManager) ShaderChanges() <-chan string {
	return am.shaders
}

// Lookup returns the index entry for a path relative to the root.
func (am *AssetManager) Lookup(name string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[filepath.ToSlash(name)]
	return info, ok
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// load runs the registered loader for name, a path relative to the root.
func (am *AssetManager) load(name string, want metadata.ResourceType) (interface{}, error) {
	key := filepath.ToSlash(filepath.Clean(name))

	am.mutex.Lock()
	info, exists := am.assets[key]
	if exists {
		info.LastLoaded = time.Now()
		am.assets[key] = info
	}
	am.mutex.Unlock()

	if !exists || info.Type != want {
		return nil, &core.AssetError{Name: name, Err: core.ErrAssetNotFound}
	}

	loader, ok := am.loaders[info.Type]
	if !ok {
		return nil, &core.AssetError{Name: name, Err: core.ErrUnknown}
	}

	data, err := loader.Load(filepath.Join(am.root, filepath.FromSlash(key)))
	if err != nil {
		return nil, &core.AssetError{Name: name, Err: err}
	}
	return data, nil
}

// LoadTexture decodes the image stored at name.
func (am *AssetManager) LoadTexture(ctx context.Context, name string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := am.load(name, metadata.ResourceTypeImage)
	if err != nil {
		return nil, err
	}
	return data.(image.Image), nil
}

// LoadModel parses the model stored at name and decodes the diffuse
// texture of every material concurrently. Textures are resolved relative to
// the model file. The first failure cancels the rest.
func (am *AssetManager) LoadModel(ctx context.Context, name string) (*metadata.ModelData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := am.load(name, metadata.ResourceTypeModel)
	if err != nil {
		return nil, err
	}
	model := data.(*metadata.ModelData)

	for _, mat := range model.Materials {
		if mat.DiffuseImage == nil && mat.DiffuseTexture == "" {
			return nil, &core.AssetError{Name: mat.Name, Err: core.ErrMaterialWithoutTexture}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	dir := filepath.Dir(filepath.ToSlash(name))
	for i := range model.Materials {
		mat := &model.Materials[i]
		if mat.DiffuseImage != nil {
			continue
		}
		g.Go(func() error {
			img, err := am.LoadTexture(gctx, filepath.Join(dir, mat.DiffuseTexture))
			if err != nil {
				return err
			}
			mat.DiffuseImage = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	core.LogDebug("Loaded model %s: %d meshes, %d materials.", name, len(model.Meshes), len(model.Materials))
	return model, nil
}

// ReadShader returns the WGSL template stored as shaders/<shader>.wgsl.
func (am *AssetManager) ReadShader(shader string) (string, error) {
	data, err := am.load(shaderDir+"/"+shader+".wgsl", metadata.ResourceTypeShader)
	if err != nil {
		return "", err
	}
	return data.(string), nil
}

// Close stops the watcher. Calling it again is a no-op.
func (am *AssetManager) Close() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	<-am.stopped
	return nil
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleWatchEvent(e)

		case e, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", e.Error())

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) handleWatchEvent(e fsnotify.Event) {
	s, err := os.Stat(e.Name)
	if err == nil && s.IsDir() {
		if e.Op&fsnotify.Create != 0 {
			if err := am.watchRecursive(e.Name); err != nil {
				core.LogWarn("asset watcher: %s", err)
			}
		}
		return
	}
	// Can't stat a deleted entry, drop it from the index in any case.
	if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		am.removeAsset(e.Name)
		return
	}
	if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	info, ok := am.handleFileEvent(e.Name)
	if !ok || info.Type != metadata.ResourceTypeShader {
		return
	}
	if dir, file := filepath.Split(info.Path); dir == shaderDir+"/" {
		shader := strings.TrimSuffix(file, filepath.Ext(file))
		select {
		case am.shaders <- shader:
		default:
			core.LogWarn("shader change queue full, dropping %s", shader)
		}
	}
}

// index walks the tree under path without watching it.
func (am *AssetManager) index(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			am.handleFileEvent(walkPath)
		}
		return nil
	})
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files found on the way.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file. The id of a known path is
// kept.
func (am *AssetManager) handleFileEvent(path string) (AssetInfo, bool) {
	key, ok := am.relative(path)
	if !ok {
		return AssetInfo{}, false
	}
	assetType := determineAssetType(key)
	if assetType == metadata.ResourceTypeNone {
		return AssetInfo{}, false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()

	info, exists := am.assets[key]
	if !exists {
		info = AssetInfo{ID: uuid.New(), Path: key, Type: assetType}
	}
	info.LastLoaded = time.Now()
	am.assets[key] = info
	return info, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	key, ok := am.relative(path)
	if !ok {
		return
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, key)
}

func (am *AssetManager) relative(path string) (string, bool) {
	rel, err := filepath.Rel(am.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (am *AssetManager) count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

func determineAssetType(path string) metadata.ResourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wgsl":
		return metadata.ResourceTypeShader
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return metadata.ResourceTypeImage
	case ".mtl":
		return metadata.ResourceTypeMaterial
	case ".obj", ".gltf", ".glb":
		return metadata.ResourceTypeModel
	default:
		return metadata.ResourceTypeNone
	}
}

// IsNotFound reports whether err comes from a name missing under the root.
func IsNotFound(err error) bool {
	return errors.Is(err, core.ErrAssetNotFound)
}
