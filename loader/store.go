package loader

import (
	"fmt"
	"io/fs"

	"github.com/gogpu/bowtie/render"
)

// Store loads assets from a file system and caches their render handles
// by path. It is owned by the simulation goroutine.
type Store struct {
	fsys  fs.FS
	iface *render.Interface

	textures  map[string]render.Handle
	shaders   map[string]render.Handle
	materials map[string]render.Handle

	// loaded lists every handle in creation order.
	loaded []render.Handle
}

// NewStore returns a store reading from fsys and loading through iface.
func NewStore(fsys fs.FS, iface *render.Interface) *Store {
	return &Store{
		fsys:      fsys,
		iface:     iface,
		textures:  make(map[string]render.Handle),
		shaders:   make(map[string]render.Handle),
		materials: make(map[string]render.Handle),
	}
}

// Len returns the number of loaded resources.
func (s *Store) Len() int { return len(s.loaded) }

// Texture loads the image at path as a texture.
func (s *Store) Texture(path string) (render.Handle, error) {
	if h, ok := s.textures[path]; ok {
		return h, nil
	}
	f, err := s.fsys.Open(path)
	if err != nil {
		return render.NoHandle, fmt.Errorf("loader: open texture: %w", err)
	}
	defer f.Close()
	img, format, err := DecodeImage(f)
	if err != nil {
		return render.NoHandle, fmt.Errorf("%s: %w", path, err)
	}
	h := s.iface.CreateTexture(img)
	s.track(s.textures, path, h)
	render.Logger().Debug("loader: texture loaded", "path", path, "format", format, "handle", h)
	return h, nil
}

// Shader loads the WGSL source at path.
func (s *Store) Shader(path string) (render.Handle, error) {
	if h, ok := s.shaders[path]; ok {
		return h, nil
	}
	src, err := fs.ReadFile(s.fsys, path)
	if err != nil {
		return render.NoHandle, fmt.Errorf("loader: read shader: %w", err)
	}
	desc, err := ParseShader(path, src)
	if err != nil {
		return render.NoHandle, err
	}
	h := s.iface.CreateResource(desc, src)
	s.track(s.shaders, path, h)
	render.Logger().Debug("loader: shader loaded", "path", path, "uniforms", len(desc.UniformNames), "handle", h)
	return h, nil
}

// Material loads the material at path together with the shader and
// texture it references.
func (s *Store) Material(path string) (render.Handle, error) {
	if h, ok := s.materials[path]; ok {
		return h, nil
	}
	data, err := fs.ReadFile(s.fsys, path)
	if err != nil {
		return render.NoHandle, fmt.Errorf("loader: read material: %w", err)
	}
	def, err := ParseMaterial(data)
	if err != nil {
		return render.NoHandle, fmt.Errorf("%s: %w", path, err)
	}
	desc := render.MaterialDesc{Uniforms: def.Uniforms}
	if desc.Shader, err = s.Shader(def.Shader); err != nil {
		return render.NoHandle, fmt.Errorf("%s: %w", path, err)
	}
	if def.Texture != "" {
		if desc.Texture, err = s.Texture(def.Texture); err != nil {
			return render.NoHandle, fmt.Errorf("%s: %w", path, err)
		}
	}
	h := s.iface.CreateMaterial(desc)
	s.track(s.materials, path, h)
	render.Logger().Debug("loader: material loaded", "path", path, "handle", h)
	return h, nil
}

func (s *Store) track(m map[string]render.Handle, path string, h render.Handle) {
	m[path] = h
	s.loaded = append(s.loaded, h)
}

// Unload unloads every resource in reverse load order, so materials go
// before the shaders and textures they reference, and empties the cache.
func (s *Store) Unload() {
	for i := len(s.loaded) - 1; i >= 0; i-- {
		s.iface.UnloadResource(s.loaded[i])
	}
	s.loaded = s.loaded[:0]
	clear(s.textures)
	clear(s.shaders)
	clear(s.materials)
}
