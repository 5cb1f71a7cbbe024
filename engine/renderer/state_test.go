package renderer

import (
	"context"
	"fmt"
	"image"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/components"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/shaders"
)

var (
	allFeatures    = Features{Texturing: true, Camera: true, Instancing: true, Depth: true, Model: true}
	inlineFeatures = Features{Texturing: true, Camera: true, Instancing: true, Depth: true}
)

func cubeAssets() *fakeAssets {
	return &fakeAssets{
		textures: map[string]image.Image{},
		model: &metadata.ModelData{
			Name: "cube.obj",
			Meshes: []metadata.MeshData{{
				Name: "cube",
				Vertices: []metadata.ModelVertex{
					{Position: [3]float32{0, 0, 0}},
					{Position: [3]float32{1, 0, 0}},
					{Position: [3]float32{0, 1, 0}},
				},
				Indices:       []uint32{0, 1, 2},
				MaterialIndex: 0,
			}},
			Materials: []metadata.MaterialData{{
				Name:           "cube_mat",
				DiffuseTexture: "cube-diffuse.png",
				DiffuseImage:   Checkerboard(4, 2),
			}},
		},
	}
}

func newTestState(t *testing.T, f Features, assets AssetSource) (*State, *fakeDevice, *fakeSurface) {
	t.Helper()
	dev := newFakeDevice()
	surf := newFakeSurface()
	opts := DefaultOptions()
	opts.Features = f
	s, err := New(context.Background(), dev, surf, Size{Width: 800, Height: 600}, assets, opts)
	require.NoError(t, err)
	return s, dev, surf
}

func keyEvent(key core.KeyCode, pressed bool) core.EventContext {
	code := core.EVENT_CODE_KEY_RELEASED
	if pressed {
		code = core.EVENT_CODE_KEY_PRESSED
	}
	return core.EventContext{Type: code, Data: &core.KeyEvent{KeyCode: key}}
}

func frameCalls(dev *fakeDevice) []string {
	calls := dev.calls
	dev.calls = nil
	return calls
}

func TestKindsCycle(t *testing.T) {
	for k := PipelineKind(0); k < pipelineKindCount; k++ {
		assert.Equal(t, k, k.Next().Next())
		assert.NotEqual(t, k, k.Next())
	}
	for k := BufferSetKind(0); k < bufferSetKindCount; k++ {
		assert.Equal(t, k, k.Next().Next())
		assert.NotEqual(t, k, k.Next())
	}
}

func TestNewChoosesSRGBFormat(t *testing.T) {
	s, _, surf := newTestState(t, allFeatures, cubeAssets())

	require.Len(t, surf.configures, 1)
	cfg := surf.configures[0]
	assert.Equal(t, wgpu.TextureFormatBGRA8UnormSrgb, cfg.Format)
	assert.Equal(t, wgpu.PresentModeFifo, cfg.PresentMode)
	assert.Equal(t, wgpu.CompositeAlphaModeOpaque, cfg.AlphaMode)
	assert.Equal(t, uint32(800), cfg.Width)
	assert.Equal(t, uint32(600), cfg.Height)
	assert.Equal(t, wgpu.TextureFormatBGRA8UnormSrgb, s.SurfaceFormat())
	assert.Equal(t, PipelineShaded, s.Pipeline())
	assert.Equal(t, BufferSetPentagon, s.BufferSet())
}

func TestNewFallsBackToFirstFormat(t *testing.T) {
	dev := newFakeDevice()
	surf := newFakeSurface(wgpu.TextureFormatRGBA8Unorm, wgpu.TextureFormatBGRA8Unorm)
	opts := DefaultOptions()
	opts.Features = Features{}
	s, err := New(context.Background(), dev, surf, Size{Width: 640, Height: 480}, nil, opts)
	require.NoError(t, err)

	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, s.SurfaceFormat())
	for _, p := range dev.pipelines {
		require.Len(t, p.Targets, 1)
		assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, p.Targets[0].Format)
	}
}

func TestPipelineDescriptors(t *testing.T) {
	_, dev, _ := newTestState(t, allFeatures, cubeAssets())

	require.Len(t, dev.pipelines, int(pipelineKindCount))
	for _, p := range dev.pipelines {
		assert.Equal(t, shaders.VertexEntry, p.VertexEntry)
		assert.Equal(t, shaders.FragmentEntry, p.FragmentEntry)
		assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Primitive.Topology)
		assert.Equal(t, wgpu.FrontFaceCCW, p.Primitive.FrontFace)
		assert.Equal(t, wgpu.CullModeBack, p.Primitive.CullMode)
		assert.Equal(t, uint32(1), p.Multisample.Count)

		require.NotNil(t, p.DepthStencil)
		assert.Equal(t, wgpu.TextureFormatDepth32Float, p.DepthStencil.Format)
		assert.Equal(t, wgpu.CompareFunctionLess, p.DepthStencil.DepthCompare)
		assert.True(t, p.DepthStencil.DepthWriteEnabled)

		require.Len(t, p.Buffers, 2)
		assert.Equal(t, metadata.ModelVertexSize, p.Buffers[0].ArrayStride)
		assert.Equal(t, wgpu.VertexStepModeVertex, p.Buffers[0].StepMode)
		assert.Equal(t, metadata.InstanceRawSize, p.Buffers[1].ArrayStride)
		assert.Equal(t, wgpu.VertexStepModeInstance, p.Buffers[1].StepMode)
		require.Len(t, p.Buffers[1].Attributes, 4)
		assert.Equal(t, uint32(5), p.Buffers[1].Attributes[0].ShaderLocation)
		assert.Equal(t, uint32(8), p.Buffers[1].Attributes[3].ShaderLocation)
	}
	assert.Equal(t, "textured shaded Render Pipeline", dev.pipelines[0].Label)
	assert.Equal(t, "textured alternate Render Pipeline", dev.pipelines[1].Label)
}

func TestNewRejectsInvalidFeatures(t *testing.T) {
	opts := DefaultOptions()
	opts.Features = Features{Model: true}
	_, err := New(context.Background(), newFakeDevice(), newFakeSurface(), Size{Width: 1, Height: 1}, nil, opts)
	assert.Error(t, err)

	opts.Features = Features{Instancing: true}
	_, err = New(context.Background(), newFakeDevice(), newFakeSurface(), Size{Width: 1, Height: 1}, nil, opts)
	assert.Error(t, err)
}

func TestNewReleasesOnAssetFailure(t *testing.T) {
	dev := newFakeDevice()
	surf := newFakeSurface()
	opts := DefaultOptions()
	opts.Features = inlineFeatures
	opts.DiffuseTexture = "missing.png"

	s, err := New(context.Background(), dev, surf, Size{Width: 800, Height: 600}, cubeAssets(), opts)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, core.ErrAssetNotFound)
	assert.Equal(t, 1, dev.released)
	assert.Equal(t, 1, surf.released)
	for _, h := range dev.handles {
		assert.Equal(t, 1, h.(releaseCounter).count())
	}
}

func TestNewRejectsMaterialWithoutTexture(t *testing.T) {
	assets := cubeAssets()
	assets.model.Materials[0].DiffuseImage = nil

	opts := DefaultOptions()
	_, err := New(context.Background(), newFakeDevice(), newFakeSurface(), Size{Width: 800, Height: 600}, assets, opts)
	assert.ErrorIs(t, err, core.ErrMaterialWithoutTexture)
}

func TestResizeReconfigures(t *testing.T) {
	s, dev, surf := newTestState(t, allFeatures, cubeAssets())
	oldDepth := dev.textures[0]
	require.Equal(t, "depth_texture", oldDepth.label)

	require.NoError(t, s.Resize(1024, 768))

	assert.Equal(t, Size{Width: 1024, Height: 768}, s.Size())
	require.Len(t, surf.configures, 2)
	assert.Equal(t, uint32(1024), surf.configures[1].Width)
	assert.Equal(t, uint32(768), surf.configures[1].Height)
	assert.Equal(t, surf.configures[0].Format, surf.configures[1].Format)
	assert.InDelta(t, 1024.0/768.0, s.Camera().Aspect, 1e-6)

	assert.Equal(t, 1, oldDepth.released)
	newDepth := dev.textures[len(dev.textures)-1]
	assert.Equal(t, "depth_texture", newDepth.label)
	assert.Equal(t, uint32(1024), newDepth.desc.Size.Width)
	assert.Equal(t, uint32(768), newDepth.desc.Size.Height)
	assert.Equal(t, 0, newDepth.released)
}

func TestResizeKeepsStateWhenDepthFails(t *testing.T) {
	s, dev, surf := newTestState(t, allFeatures, cubeAssets())
	oldDepth := s.depth
	dev.failTextures = true

	require.Error(t, s.Resize(1024, 768))

	assert.Equal(t, Size{Width: 800, Height: 600}, s.Size())
	assert.Len(t, surf.configures, 1)
	assert.InDelta(t, 800.0/600.0, s.Camera().Aspect, 1e-6)
	assert.Same(t, oldDepth, s.depth)
	assert.Equal(t, s.config.Width, s.depth.Width)
	assert.Equal(t, s.config.Height, s.depth.Height)
	assert.Equal(t, 0, dev.textures[0].released)
}

func TestResizeReleasesNewDepthWhenConfigureFails(t *testing.T) {
	s, dev, surf := newTestState(t, allFeatures, cubeAssets())
	oldDepth := s.depth
	surf.configureErr = fmt.Errorf("device lost")

	require.Error(t, s.Resize(1024, 768))

	assert.Equal(t, Size{Width: 800, Height: 600}, s.Size())
	assert.Equal(t, uint32(800), s.config.Width)
	assert.Same(t, oldDepth, s.depth)
	created := dev.textures[len(dev.textures)-1]
	assert.Equal(t, uint32(1024), created.desc.Size.Width)
	assert.Equal(t, 1, created.released)
}

func TestResizeIgnoresZero(t *testing.T) {
	s, dev, surf := newTestState(t, allFeatures, cubeAssets())
	textures := len(dev.textures)

	assert.NoError(t, s.Resize(0, 600))
	assert.NoError(t, s.Resize(800, 0))
	assert.NoError(t, s.Resize(0, 0))

	assert.Len(t, surf.configures, 1)
	assert.Len(t, dev.textures, textures)
	assert.Equal(t, Size{Width: 800, Height: 600}, s.Size())
	assert.InDelta(t, 800.0/600.0, s.Camera().Aspect, 1e-6)
}

func TestRenderModelOrder(t *testing.T) {
	s, dev, surf := newTestState(t, allFeatures, cubeAssets())

	require.NoError(t, s.Render())
	assert.Equal(t, []string{
		"BeginRenderPass clear={0.1 0.2 0.3 1} depth=1",
		"SetPipeline textured shaded Render Pipeline",
		"SetBindGroup 1 camera_bind_group",
		"SetVertexBuffer 1 Instance Buffer",
		"SetBindGroup 0 material cube_mat",
		"SetVertexBuffer 0 cube Vertex Buffer",
		"SetIndexBuffer cube Index Buffer uint32",
		"DrawIndexed 3 100",
		"End",
	}, frameCalls(dev))
	assert.Equal(t, 1, dev.queue.submits)
	assert.Equal(t, 1, surf.presents)
	require.Len(t, surf.acquired, 1)
	assert.Equal(t, 1, surf.acquired[0].released)
}

func TestRenderInlineTextured(t *testing.T) {
	s, dev, _ := newTestState(t, inlineFeatures, nil)

	require.NoError(t, s.Render())
	assert.Equal(t, []string{
		"BeginRenderPass clear={0.1 0.2 0.3 1} depth=1",
		"SetPipeline textured shaded Render Pipeline",
		"SetBindGroup 0 diffuse_bind_group",
		"SetBindGroup 1 camera_bind_group",
		"SetVertexBuffer 0 pentagon Vertex Buffer",
		"SetVertexBuffer 1 Instance Buffer",
		"SetIndexBuffer pentagon Index Buffer uint16",
		"DrawIndexed 9 100",
		"End",
	}, frameCalls(dev))
}

func TestRenderWithoutFeatures(t *testing.T) {
	s, dev, _ := newTestState(t, Features{}, nil)

	require.NoError(t, s.Render())
	assert.Equal(t, []string{
		"BeginRenderPass clear={0.1 0.2 0.3 1} depth=none",
		"SetPipeline color shaded Render Pipeline",
		"SetVertexBuffer 0 pentagon Vertex Buffer",
		"SetIndexBuffer pentagon Index Buffer uint16",
		"DrawIndexed 9 1",
		"End",
	}, frameCalls(dev))
	for _, p := range dev.pipelines {
		assert.Nil(t, p.DepthStencil)
		assert.Len(t, p.Buffers, 1)
	}
	assert.Empty(t, dev.layouts)

	// An odd number of uint16 indices is padded to a four byte boundary.
	assert.Len(t, dev.bufferByLabel("triangle Index Buffer").contents, 8)
}

func TestPipelineCycling(t *testing.T) {
	s, dev, _ := newTestState(t, allFeatures, cubeAssets())

	assert.True(t, s.Input(keyEvent(core.KEY_SPACE, true)))
	assert.Equal(t, PipelineAlternate, s.Pipeline())
	require.NoError(t, s.Render())
	assert.Contains(t, frameCalls(dev), "SetPipeline textured alternate Render Pipeline")

	assert.False(t, s.Input(keyEvent(core.KEY_SPACE, false)))
	assert.True(t, s.Input(keyEvent(core.KEY_SPACE, true)))
	assert.Equal(t, PipelineShaded, s.Pipeline())
}

func TestBufferCyclingInlineOnly(t *testing.T) {
	s, dev, _ := newTestState(t, inlineFeatures, nil)

	assert.True(t, s.Input(keyEvent(core.KEY_TAB, true)))
	assert.Equal(t, BufferSetTriangle, s.BufferSet())
	require.NoError(t, s.Render())
	calls := frameCalls(dev)
	assert.Contains(t, calls, "SetIndexBuffer triangle Index Buffer uint16")
	assert.Contains(t, calls, "DrawIndexed 3 100")

	assert.True(t, s.Input(keyEvent(core.KEY_TAB, true)))
	assert.Equal(t, BufferSetPentagon, s.BufferSet())

	m, _, _ := newTestState(t, allFeatures, cubeAssets())
	assert.False(t, m.Input(keyEvent(core.KEY_TAB, true)))
	assert.Equal(t, BufferSetPentagon, m.BufferSet())
}

func TestCustomBindings(t *testing.T) {
	dev := newFakeDevice()
	opts := DefaultOptions()
	opts.Features = inlineFeatures
	opts.Bindings = Bindings{CyclePipeline: core.KEY_P, CycleBuffers: core.KEY_B}
	s, err := New(context.Background(), dev, newFakeSurface(), Size{Width: 800, Height: 600}, nil, opts)
	require.NoError(t, err)

	assert.False(t, s.Input(keyEvent(core.KEY_SPACE, true)))
	assert.True(t, s.Input(keyEvent(core.KEY_P, true)))
	assert.True(t, s.Input(keyEvent(core.KEY_B, true)))
	assert.Equal(t, PipelineAlternate, s.Pipeline())
	assert.Equal(t, BufferSetTriangle, s.BufferSet())
}

func TestInputDispatch(t *testing.T) {
	s, _, _ := newTestState(t, allFeatures, cubeAssets())

	assert.True(t, s.Input(keyEvent(core.KEY_W, true)))
	assert.True(t, s.Input(keyEvent(core.KEY_W, false)))
	assert.True(t, s.Input(keyEvent(core.KEY_E, true)))
	assert.False(t, s.Input(keyEvent(core.KEY_F5, true)))
	assert.False(t, s.Input(core.EventContext{Type: core.EVENT_CODE_KEY_PRESSED}))
	assert.False(t, s.Input(core.EventContext{Type: core.EVENT_CODE_RESIZED, Data: "800x600"}))
	assert.False(t, s.ShouldExit())

	assert.True(t, s.Input(core.EventContext{
		Type: core.EVENT_CODE_RESIZED,
		Data: &core.SystemEvent{Width: 320, Height: 200},
	}))
	assert.Equal(t, Size{Width: 320, Height: 200}, s.Size())

	assert.True(t, s.Input(core.EventContext{
		Type: core.EVENT_CODE_SCALE_CHANGED,
		Data: &core.SystemEvent{Width: 640, Height: 400, ScaleX: 2, ScaleY: 2},
	}))
	assert.Equal(t, Size{Width: 640, Height: 400}, s.Size())

	assert.True(t, s.Input(keyEvent(core.KEY_ESCAPE, true)))
	assert.True(t, s.ShouldExit())
}

func TestQuitRequest(t *testing.T) {
	s, _, _ := newTestState(t, Features{}, nil)
	assert.True(t, s.Input(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT}))
	assert.True(t, s.ShouldExit())
}

func TestMovementKeysIgnoredWithoutCamera(t *testing.T) {
	s, dev, _ := newTestState(t, Features{}, nil)
	assert.False(t, s.Input(keyEvent(core.KEY_W, true)))
	require.NoError(t, s.Update())
	assert.Empty(t, dev.queue.writes)
}

func TestUpdateWritesCameraUniform(t *testing.T) {
	s, dev, _ := newTestState(t, allFeatures, cubeAssets())
	before := s.Camera()

	s.Input(keyEvent(core.KEY_W, true))
	require.NoError(t, s.Update())

	after := s.Camera()
	d0 := before.Target.Sub(before.Eye).Length()
	d1 := after.Target.Sub(after.Eye).Length()
	assert.InDelta(t, d0-DefaultOptions().CameraSpeed, d1, 1e-4)

	require.Len(t, dev.queue.writes, 1)
	w := dev.queue.writes[0]
	assert.Equal(t, "Camera Buffer", labelOf(w.buffer))

	want := components.NewCameraUniform()
	want.UpdateViewProj(&after)
	assert.Equal(t, wgpu.ToBytes([]components.CameraUniform{want}), w.data)
	assert.Len(t, w.data, int(components.CameraUniformSize))
}

func TestRedrawPresents(t *testing.T) {
	s, dev, surf := newTestState(t, allFeatures, cubeAssets())
	s.Redraw()
	assert.Equal(t, 1, surf.presents)
	assert.Equal(t, 1, dev.queue.submits)
	assert.Len(t, dev.queue.writes, 1)
	assert.False(t, s.ShouldExit())
}

func TestRedrawSurfaceLost(t *testing.T) {
	for _, lost := range []error{core.ErrSurfaceLost, fmt.Errorf("outdated: %w", core.ErrSurfaceLost)} {
		s, dev, surf := newTestState(t, allFeatures, cubeAssets())
		surf.acquireErr = lost

		s.Redraw()

		require.Len(t, surf.configures, 2)
		assert.Equal(t, surf.configures[0], surf.configures[1])
		assert.Equal(t, Size{Width: 800, Height: 600}, s.Size())
		assert.Equal(t, 0, surf.presents)
		assert.Equal(t, 0, dev.queue.submits)
		assert.False(t, s.ShouldExit())
	}
}

func TestRedrawOutOfMemory(t *testing.T) {
	s, _, surf := newTestState(t, allFeatures, cubeAssets())
	surf.acquireErr = core.ErrSurfaceOutOfMemory

	s.Redraw()

	assert.True(t, s.ShouldExit())
	assert.Equal(t, 0, surf.presents)
	assert.Len(t, surf.configures, 1)
}

func TestRedrawOtherErrorSkipsFrame(t *testing.T) {
	s, _, surf := newTestState(t, allFeatures, cubeAssets())
	surf.acquireErr = &core.SurfaceError{Status: "timeout"}

	s.Redraw()

	assert.False(t, s.ShouldExit())
	assert.Equal(t, 0, surf.presents)
	assert.Len(t, surf.configures, 1)

	surf.acquireErr = nil
	s.Redraw()
	assert.Equal(t, 1, surf.presents)
}

func TestReloadShader(t *testing.T) {
	s, dev, _ := newTestState(t, allFeatures, cubeAssets())
	old := s.pipelines
	src, err := shaders.Source(shaders.Textured)
	require.NoError(t, err)

	require.Error(t, s.ReloadShader(shaders.Textured, "@vertex fn vs_main( {"))
	require.Error(t, s.ReloadShader(shaders.Textured, "{{if .Camera}"))
	dev.failPipelines = true
	require.Error(t, s.ReloadShader(shaders.Textured, src))
	dev.failPipelines = false
	for i, p := range old {
		assert.Same(t, p, s.pipelines[i])
		assert.Equal(t, 0, p.(*fakeHandle).released)
	}

	require.NoError(t, s.ReloadShader(shaders.Color, "not even wgsl"))
	for i, p := range old {
		assert.Same(t, p, s.pipelines[i])
	}

	require.NoError(t, s.ReloadShader(shaders.Textured, src))
	for i, p := range old {
		assert.NotSame(t, p, s.pipelines[i])
		assert.Equal(t, 1, p.(*fakeHandle).released)
	}
	require.NoError(t, s.Render())
}

func TestReleaseFreesEverything(t *testing.T) {
	s, dev, surf := newTestState(t, allFeatures, cubeAssets())
	require.NoError(t, s.Render())

	s.Release()

	for _, h := range dev.handles {
		assert.Equal(t, 1, h.(releaseCounter).count(), labelOf(h))
	}
	for _, tex := range dev.textures {
		for _, v := range tex.views {
			assert.Equal(t, 1, v.released, v.label)
		}
	}
	assert.Equal(t, 1, dev.released)
	assert.Equal(t, 1, surf.released)
}
