package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spaghettifunk/meshview/engine/assets/loaders"
	"github.com/spaghettifunk/meshview/engine/core"
	"github.com/spaghettifunk/meshview/engine/renderer/metadata"
)

type AssetInfo struct {
	// ID of the resource last loaded from Path; uuid.Nil until loaded.
	ID         uuid.UUID
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// AssetManager indexes the files under the asset directory, loads them
// through the registered loaders and reports shader rebuilds when watching.
type AssetManager struct {
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	shaders  chan string
}

func NewAssetManager() *AssetManager {
	am := &AssetManager{
		assets:  make(map[string]AssetInfo),
		loaders: make(map[metadata.ResourceType]Loader),
		shaders: make(chan string, 16),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	am.registerLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(metadata.ResourceTypeImage, &loaders.TextureLoader{})
	am.registerLoader(metadata.ResourceTypeMaterial, &loaders.MaterialLoader{})
	am.registerLoader(metadata.ResourceTypeModel, &loaders.ModelLoader{})

	return am
}

// Initialize indexes assetsDir. With watch set, file changes keep the index
// current and modified shaders are reported on ShaderChanges.
func (am *AssetManager) Initialize(assetsDir string, watch bool) error {
	if !watch {
		close(am.stopped)
		return filepath.Walk(assetsDir, func(walkPath string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fi.IsDir() {
				am.handleFileEvent(walkPath)
			}
			return nil
		})
	}

	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		close(am.stopped)
		return err
	}
	am.fsnotify = fsWatch

	if err := am.watchRecursive(assetsDir, false); err != nil {
		fsWatch.Close()
		close(am.stopped)
		return err
	}
	go am.start()
	core.LogDebug("watching %s for changes", assetsDir)
	return nil
}

// ShaderChanges delivers the path of every SPIR-V file written while watching.
func (am *AssetManager) ShaderChanges() <-chan string {
	return am.shaders
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadAsset loads path with the loader matching its extension.
func (am *AssetManager) LoadAsset(path string, params interface{}) (*metadata.Resource, error) {
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return nil, fmt.Errorf("unknown asset type for %s", path)
	}

	loader, exists := am.loaders[assetType]
	if !exists {
		return nil, fmt.Errorf("no loader registered for asset type: %s", assetType)
	}

	res, err := loader.Load(path, params)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	am.assets[filepath.Clean(path)] = AssetInfo{
		ID:         res.ID,
		Path:       path,
		Type:       assetType,
		LastLoaded: time.Now(),
	}
	am.mutex.Unlock()

	core.LogDebug("Loaded %s %s as %s.", assetType, path, res.ID)
	return res, nil
}

func (am *AssetManager) UnloadAsset(asset *metadata.Resource) error {
	if asset == nil {
		return nil
	}
	if loader, exists := am.loaders[asset.Type]; exists {
		return loader.Unload(asset)
	}
	return nil
}

func (am *AssetManager) LoadModel(path string) (*metadata.Model, error) {
	res, err := am.LoadAsset(path, nil)
	if err != nil {
		return nil, err
	}
	model, ok := res.Data.(*metadata.Model)
	if !ok {
		return nil, fmt.Errorf("%s is not a model", path)
	}
	return model, nil
}

func (am *AssetManager) LoadShader(path string) ([]byte, error) {
	res, err := am.LoadAsset(path, nil)
	if err != nil {
		return nil, err
	}
	code, ok := res.Data.([]byte)
	if !ok {
		return nil, fmt.Errorf("%s is not a shader", path)
	}
	return code, nil
}

// Assets returns a snapshot of the indexed files of the given type.
func (am *AssetManager) Assets(assetType metadata.ResourceType) []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	var out []AssetInfo
	for _, a := range am.assets {
		if a.Type == assetType {
			out = append(out, a)
		}
	}
	return out
}

// Shutdown stops the watcher. It is safe to call more than once.
func (am *AssetManager) Shutdown() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	if am.fsnotify == nil {
		return nil
	}
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
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					am.watchRecursive(e.Name, false)
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name)
				if determineAssetType(e.Name) == metadata.ResourceTypeShader {
					am.notifyShader(e.Name)
				}
			}
			// a removed path cannot be stat'ed, so drop it from both the index and the watch list
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
				am.fsnotify.Remove(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err.Error())

		case <-am.done:
			am.fsnotify.Close()
			close(am.shaders)
			return
		}
	}
}

// notifyShader never blocks the watcher; a full queue already holds a pending reload.
func (am *AssetManager) notifyShader(path string) {
	select {
	case am.shaders <- path:
	default:
		core.LogDebug("shader change queue full, dropping %s", path)
	}
}

// watchRecursive adds all directories under the given one to the watch list.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	if am.fsnotify == nil {
		return errors.New("asset watcher not started")
	}
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unWatch {
				return am.fsnotify.Remove(walkPath)
			}
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) {
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()

	am.assets[filepath.Clean(path)] = AssetInfo{
		Path: path,
		Type: assetType,
	}
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, filepath.Clean(path))
}

func determineAssetType(path string) metadata.ResourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".spv":
		return metadata.ResourceTypeShader
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp":
		return metadata.ResourceTypeImage
	case ".mtl":
		return metadata.ResourceTypeMaterial
	case ".obj":
		return metadata.ResourceTypeModel
	default:
		return metadata.ResourceTypeNone
	}
}
