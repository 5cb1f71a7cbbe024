package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/backend"
	"github.com/spaghettifunk/lumen/engine/renderer/components"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/shaders"
)

// AssetSource provides the decoded images and models the state uploads.
type AssetSource interface {
	LoadTexture(ctx context.Context, name string) (image.Image, error)
	LoadModel(ctx context.Context, name string) (*metadata.ModelData, error)
}

type Size struct {
	Width  uint32
	Height uint32
}

/**
 * @brief The render state owns every GPU resource of the window: the
 * device, the surface, pipelines, buffers, textures and bind groups. It
 * reacts to input and resize events and records one render pass per frame.
 * All methods must be called from the thread that owns the window.
 */
type State struct {
	device  backend.Device
	queue   backend.Queue
	surface backend.Surface
	opts    Options
	config  backend.SurfaceConfiguration
	size    Size

	textureLayout  backend.BindGroupLayout
	cameraLayout   backend.BindGroupLayout
	pipelineLayout backend.PipelineLayout
	pipelines      [pipelineKindCount]backend.RenderPipeline
	pipeline       PipelineKind

	diffuse          *Texture
	diffuseBindGroup backend.BindGroup
	depth            *Texture

	camera          components.Camera
	controller      *components.CameraController
	cameraUniform   components.CameraUniform
	cameraBuffer    backend.Buffer
	cameraBindGroup backend.BindGroup

	instances      []metadata.Instance
	instanceBuffer backend.Buffer

	bufferSets [bufferSetKindCount]bufferSet
	buffers    BufferSetKind
	model      *Model

	exit bool
}

// New configures surface for size and creates every resource needed by
// opts. assets may be nil when neither a diffuse texture file nor a model
// is requested. On failure everything created so far, the device and
// surface included, is released.
func New(ctx context.Context, device backend.Device, surface backend.Surface, size Size, assets AssetSource, opts Options) (s *State, err error) {
	if err := opts.Features.Validate(); err != nil {
		return nil, err
	}
	s = &State{
		device:  device,
		queue:   device.Queue(),
		surface: surface,
		opts:    opts,
		size:    Size{Width: max(size.Width, 1), Height: max(size.Height, 1)},
		camera:  opts.Camera,
	}
	defer func() {
		if err != nil {
			s.Release()
			s = nil
		}
	}()

	if err = s.configureSurface(); err != nil {
		return s, err
	}
	if err = s.createLayouts(); err != nil {
		return s, err
	}
	src, err := shaders.Source(s.shaderName())
	if err != nil {
		return s, err
	}
	if s.pipelines, err = s.buildPipelines(src); err != nil {
		return s, err
	}
	if err = s.createTextures(ctx, assets); err != nil {
		return s, err
	}
	if err = s.createCamera(); err != nil {
		return s, err
	}
	if err = s.createInstances(); err != nil {
		return s, err
	}
	if err = s.createGeometry(ctx, assets); err != nil {
		return s, err
	}

	s.pipeline = PipelineKind(0)
	s.buffers = BufferSetKind(0)
	core.LogInfo("Render state initialized: %dx%d, format %v, features %+v.", s.size.Width, s.size.Height, s.config.Format, s.opts.Features)
	return s, nil
}

func (s *State) configureSurface() error {
	caps := s.surface.Capabilities()
	if len(caps.Formats) == 0 {
		return fmt.Errorf("surface reports no formats")
	}
	alpha := wgpu.CompositeAlphaModeOpaque
	if len(caps.AlphaModes) > 0 {
		alpha = caps.AlphaModes[0]
	}
	s.config = backend.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      chooseFormat(caps.Formats),
		Width:       s.size.Width,
		Height:      s.size.Height,
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   alpha,
	}
	if err := s.surface.Configure(&s.config); err != nil {
		return fmt.Errorf("configure surface: %w", err)
	}
	return nil
}

// chooseFormat prefers an sRGB format so shading happens in linear space.
func chooseFormat(formats []wgpu.TextureFormat) wgpu.TextureFormat {
	for _, f := range formats {
		switch f {
		case wgpu.TextureFormatBGRA8UnormSrgb, wgpu.TextureFormatRGBA8UnormSrgb:
			return f
		}
	}
	return formats[0]
}

func (s *State) createLayouts() error {
	var layouts []backend.BindGroupLayout
	var err error
	if s.opts.Features.Texturing {
		if s.textureLayout, err = s.device.CreateBindGroupLayout(&textureBindGroupLayout); err != nil {
			return fmt.Errorf("texture bind group layout: %w", err)
		}
		layouts = append(layouts, s.textureLayout)
	}
	if s.opts.Features.Camera {
		if s.cameraLayout, err = s.device.CreateBindGroupLayout(&cameraBindGroupLayout); err != nil {
			return fmt.Errorf("camera bind group layout: %w", err)
		}
		layouts = append(layouts, s.cameraLayout)
	}
	if s.pipelineLayout, err = s.device.CreatePipelineLayout("Render Pipeline Layout", layouts); err != nil {
		return fmt.Errorf("pipeline layout: %w", err)
	}
	return nil
}

func (s *State) createTextures(ctx context.Context, assets AssetSource) error {
	if s.opts.Features.Depth {
		depth, err := NewDepthTexture(s.device, "depth_texture", s.size.Width, s.size.Height)
		if err != nil {
			return err
		}
		s.depth = depth
	}
	// Models carry their own material textures.
	if !s.opts.Features.Texturing || s.opts.Features.Model {
		return nil
	}

	var img image.Image = Checkerboard(256, 8)
	label := "checkerboard"
	if s.opts.DiffuseTexture != "" {
		if assets == nil {
			return fmt.Errorf("diffuse texture %q requested without an asset source", s.opts.DiffuseTexture)
		}
		loaded, err := assets.LoadTexture(ctx, s.opts.DiffuseTexture)
		if err != nil {
			return err
		}
		img, label = loaded, s.opts.DiffuseTexture
	}
	diffuse, err := NewTextureFromImage(s.device, label, img)
	if err != nil {
		return err
	}
	s.diffuse = diffuse
	s.diffuseBindGroup, err = newTextureBindGroup(s.device, s.textureLayout, diffuse, "diffuse_bind_group")
	return err
}

func (s *State) createCamera() error {
	if !s.opts.Features.Camera {
		return nil
	}
	s.camera.SetAspect(s.size.Width, s.size.Height)
	s.controller = components.NewCameraController(s.opts.CameraSpeed)
	s.cameraUniform = components.NewCameraUniform()
	s.cameraUniform.UpdateViewProj(&s.camera)

	var err error
	s.cameraBuffer, err = s.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Camera Buffer",
		Contents: wgpu.ToBytes([]components.CameraUniform{s.cameraUniform}),
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("camera buffer: %w", err)
	}
	s.cameraBindGroup, err = s.device.CreateBindGroup(&backend.BindGroupDescriptor{
		Label:  "camera_bind_group",
		Layout: s.cameraLayout,
		Entries: []backend.BindGroupEntry{
			{Binding: 0, Buffer: s.cameraBuffer, Size: components.CameraUniformSize},
		},
	})
	if err != nil {
		return fmt.Errorf("camera bind group: %w", err)
	}
	return nil
}

func (s *State) createInstances() error {
	if !s.opts.Features.Instancing {
		return nil
	}
	s.instances = metadata.GenerateInstances(s.opts.Instances)
	var err error
	s.instanceBuffer, err = s.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Instance Buffer",
		Contents: wgpu.ToBytes(metadata.InstancesToRaw(s.instances)),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return fmt.Errorf("instance buffer: %w", err)
	}
	return nil
}

func (s *State) createGeometry(ctx context.Context, assets AssetSource) error {
	if s.opts.Features.Model {
		if assets == nil {
			return fmt.Errorf("model %q requested without an asset source", s.opts.ModelFile)
		}
		data, err := assets.LoadModel(ctx, s.opts.ModelFile)
		if err != nil {
			return err
		}
		if s.model, err = NewModel(s.device, s.textureLayout, data); err != nil {
			return err
		}
		return nil
	}

	sets := [bufferSetKindCount]metadata.GeometrySet{
		BufferSetPentagon: metadata.Pentagon(),
		BufferSetTriangle: metadata.Triangle(),
	}
	for kind, g := range sets {
		set, err := newBufferSet(s.device, g, s.opts.Features.Texturing)
		if err != nil {
			return err
		}
		s.bufferSets[kind] = set
	}
	return nil
}

// Resize reconfigures the surface and everything sized after it. A zero
// width or height, as reported for minimized windows, is ignored. The
// depth texture is created first, on any error the previous size, surface
// configuration, aspect and depth texture all stay.
func (s *State) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}

	var depth *Texture
	if s.opts.Features.Depth {
		var err error
		if depth, err = NewDepthTexture(s.device, "depth_texture", width, height); err != nil {
			return fmt.Errorf("resize to %dx%d: %w", width, height, err)
		}
	}

	config := s.config
	config.Width = width
	config.Height = height
	if err := s.surface.Configure(&config); err != nil {
		depth.Release()
		return fmt.Errorf("resize to %dx%d: configure surface: %w", width, height, err)
	}

	s.size = Size{Width: width, Height: height}
	s.config = config
	s.camera.SetAspect(width, height)
	if depth != nil {
		s.depth.Release()
		s.depth = depth
	}
	return nil
}

// Input handles one event from the host. It reports whether the event was
// consumed.
func (s *State) Input(ev core.EventContext) bool {
	switch ev.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		s.RequestExit()
		return true
	case core.EVENT_CODE_RESIZED, core.EVENT_CODE_SCALE_CHANGED:
		se, ok := ev.Data.(*core.SystemEvent)
		if !ok {
			return false
		}
		if err := s.Resize(se.Width, se.Height); err != nil {
			core.LogError("%s", err)
		}
		return true
	case core.EVENT_CODE_KEY_PRESSED, core.EVENT_CODE_KEY_RELEASED:
		ke, ok := ev.Data.(*core.KeyEvent)
		if !ok {
			return false
		}
		return s.processKey(ke.KeyCode, ev.Type == core.EVENT_CODE_KEY_PRESSED)
	}
	return false
}

func (s *State) processKey(key core.KeyCode, pressed bool) bool {
	if pressed {
		switch key {
		case core.KEY_ESCAPE:
			s.RequestExit()
			return true
		case s.opts.Bindings.CyclePipeline:
			s.pipeline = s.pipeline.Next()
			core.LogDebug("pipeline: %s", s.pipeline)
			return true
		case s.opts.Bindings.CycleBuffers:
			if s.model == nil {
				s.buffers = s.buffers.Next()
				core.LogDebug("buffer set: %s", s.buffers)
				return true
			}
		}
	}
	if s.controller == nil {
		return false
	}
	return s.controller.ProcessKey(key, pressed)
}

// Update advances the camera and uploads the new view-projection.
func (s *State) Update() error {
	if s.controller == nil {
		return nil
	}
	s.controller.UpdateCamera(&s.camera)
	s.cameraUniform.UpdateViewProj(&s.camera)
	if err := s.queue.WriteBuffer(s.cameraBuffer, 0, wgpu.ToBytes([]components.CameraUniform{s.cameraUniform})); err != nil {
		return fmt.Errorf("camera uniform: %w", err)
	}
	return nil
}

// Render records and submits one frame. Acquire failures are returned as
// is and nothing is presented.
func (s *State) Render() error {
	frame, err := s.surface.AcquireTexture()
	if err != nil {
		return err
	}
	defer frame.Release()

	view, err := frame.CreateView()
	if err != nil {
		return fmt.Errorf("surface view: %w", err)
	}
	defer view.Release()

	encoder, err := s.device.CreateCommandEncoder("Render Encoder")
	if err != nil {
		return fmt.Errorf("command encoder: %w", err)
	}
	defer encoder.Release()

	desc := &backend.RenderPassDescriptor{
		Label:      "Render Pass",
		ColorView:  view,
		ClearColor: s.opts.ClearColor,
	}
	if s.depth != nil {
		desc.DepthView = s.depth.View
		desc.DepthClear = 1.0
	}
	pass := encoder.BeginRenderPass(desc)
	s.draw(pass)
	err = pass.End()
	pass.Release()
	if err != nil {
		return fmt.Errorf("render pass: %w", err)
	}

	cmd, err := encoder.Finish()
	if err != nil {
		return fmt.Errorf("finish commands: %w", err)
	}
	defer cmd.Release()

	s.queue.Submit(cmd)
	s.surface.Present()
	return nil
}

func (s *State) draw(pass backend.RenderPass) {
	textureSlot, cameraSlot := s.bindGroupSlots()
	instances := s.instanceCount()

	pass.SetPipeline(s.pipelines[s.pipeline])
	if s.model != nil {
		if cameraSlot >= 0 {
			pass.SetBindGroup(uint32(cameraSlot), s.cameraBindGroup)
		}
		if s.instanceBuffer != nil {
			pass.SetVertexBuffer(1, s.instanceBuffer)
		}
		for _, mesh := range s.model.Meshes {
			pass.SetBindGroup(uint32(textureSlot), s.model.Materials[mesh.Material].BindGroup)
			pass.SetVertexBuffer(0, mesh.VertexBuffer)
			pass.SetIndexBuffer(mesh.IndexBuffer, wgpu.IndexFormatUint32)
			pass.DrawIndexed(mesh.NumElements, instances)
		}
		return
	}

	if textureSlot >= 0 {
		pass.SetBindGroup(uint32(textureSlot), s.diffuseBindGroup)
	}
	if cameraSlot >= 0 {
		pass.SetBindGroup(uint32(cameraSlot), s.cameraBindGroup)
	}
	set := s.bufferSets[s.buffers]
	pass.SetVertexBuffer(0, set.vertices)
	if s.instanceBuffer != nil {
		pass.SetVertexBuffer(1, s.instanceBuffer)
	}
	pass.SetIndexBuffer(set.indices, wgpu.IndexFormatUint16)
	pass.DrawIndexed(set.numIndices, instances)
}

func (s *State) instanceCount() uint32 {
	if len(s.instances) == 0 {
		return 1
	}
	return uint32(len(s.instances))
}

// Redraw runs one update and render and applies the recovery policy for
// acquire failures: a lost surface is reconfigured at the current size,
// out of memory stops the application, anything else skips the frame.
func (s *State) Redraw() {
	if err := s.Update(); err != nil {
		core.LogError("update failed: %s", err)
	}
	err := s.Render()
	switch {
	case err == nil:
	case errors.Is(err, core.ErrSurfaceLost):
		core.LogWarn("surface lost, reconfiguring at %dx%d", s.size.Width, s.size.Height)
		if err := s.Resize(s.size.Width, s.size.Height); err != nil {
			core.LogError("surface recovery failed: %s", err)
		}
	case errors.Is(err, core.ErrSurfaceOutOfMemory):
		core.LogError("%s, shutting down", err)
		s.RequestExit()
	default:
		core.LogWarn("frame skipped: %s", err)
	}
}

// ReloadShader replaces the pipelines with ones built from the template
// src when name is the program in use. On any error the current pipelines
// stay.
func (s *State) ReloadShader(name, src string) error {
	if name != s.shaderName() {
		core.LogDebug("shader %s changed but %s is in use, ignoring", name, s.shaderName())
		return nil
	}
	pipelines, err := s.buildPipelines(src)
	if err != nil {
		return err
	}
	s.releasePipelines()
	s.pipelines = pipelines
	core.LogInfo("Shader %s reloaded.", name)
	return nil
}

func (s *State) RequestExit() {
	s.exit = true
}

func (s *State) ShouldExit() bool {
	return s.exit
}

func (s *State) Size() Size {
	return s.size
}

func (s *State) Camera() components.Camera {
	return s.camera
}

func (s *State) Pipeline() PipelineKind {
	return s.pipeline
}

func (s *State) BufferSet() BufferSetKind {
	return s.buffers
}

func (s *State) SurfaceFormat() wgpu.TextureFormat {
	return s.config.Format
}

// Release frees every resource in reverse creation order, the surface and
// the device last.
func (s *State) Release() {
	s.model.Release()
	s.model = nil
	for i := range s.bufferSets {
		s.bufferSets[i].release()
	}
	releaseAll(s.instanceBuffer, s.cameraBindGroup, s.cameraBuffer, s.diffuseBindGroup)
	s.instanceBuffer, s.cameraBindGroup, s.cameraBuffer, s.diffuseBindGroup = nil, nil, nil, nil

	s.diffuse.Release()
	s.diffuse = nil
	s.depth.Release()
	s.depth = nil

	s.releasePipelines()
	releaseAll(s.pipelineLayout, s.cameraLayout, s.textureLayout)
	s.pipelineLayout, s.cameraLayout, s.textureLayout = nil, nil, nil

	releaseAll(s.surface, s.device)
	s.surface, s.device, s.queue = nil, nil, nil
}

func releaseAll(handles ...backend.Releaser) {
	for _, h := range handles {
		if h != nil {
			h.Release()
		}
	}
}
