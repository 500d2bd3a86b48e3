package compute

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Pair indexes two overlapping bounding spheres, A < B.
type Pair struct {
	A, B uint32
}

// Each thread tests one sphere against every sphere with a higher index, so
// no pair is reported twice.
const broadPhaseShader = `
struct Sphere {
    pos: vec3<f32>,
    radius: f32,
}

struct Pair {
    a: u32,
    b: u32,
}

@group(0) @binding(0) var<storage, read> spheres: array<Sphere>;
@group(0) @binding(1) var<storage, read_write> pairs: array<Pair>;
@group(0) @binding(2) var<storage, read_write> pairCount: atomic<u32>;
@group(0) @binding(3) var<uniform> objectCount: u32;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let i = global_id.x;
    if (i >= objectCount) {
        return;
    }
    let a = spheres[i];
    for (var j = i + 1u; j < objectCount; j = j + 1u) {
        let b = spheres[j];
        let diff = a.pos - b.pos;
        let reach = a.radius + b.radius;
        if (dot(diff, diff) < reach * reach) {
            let idx = atomicAdd(&pairCount, 1u);
            if (idx < arrayLength(&pairs)) {
                pairs[idx] = Pair(i, j);
            }
        }
    }
}
`

const workgroupSize = 256

// Overlaps finds every overlapping pair of spheres (xyz center, w radius)
// on the CPU. It is the reference for BroadPhase.
func Overlaps(spheres []rl.Vector4) []Pair {
	var pairs []Pair
	for i := range spheres {
		a := spheres[i]
		for j := i + 1; j < len(spheres); j++ {
			b := spheres[j]
			dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
			reach := a.W + b.W
			if dx*dx+dy*dy+dz*dz < reach*reach {
				pairs = append(pairs, Pair{A: uint32(i), B: uint32(j)})
			}
		}
	}
	return pairs
}

// BroadPhase finds overlapping bounding spheres on the GPU. It is sized for
// a fixed number of spheres and pairs.
type BroadPhase struct {
	dev *Device

	layout    *wgpu.BindGroupLayout
	pipeline  *wgpu.ComputePipeline
	bindGroup *wgpu.BindGroup

	spheres *buffer
	pairs   *buffer
	count   *buffer
	objects *buffer

	maxObjects uint32
	maxPairs   uint32
}

// NewBroadPhase compiles the pair shader and allocates buffers for
// maxObjects spheres and maxPairs results.
func NewBroadPhase(d *Device, maxObjects, maxPairs uint32) (*BroadPhase, error) {
	if maxObjects == 0 || maxPairs == 0 {
		return nil, fmt.Errorf("broad phase needs room for objects and pairs, got %d and %d", maxObjects, maxPairs)
	}
	bp := &BroadPhase{dev: d, maxObjects: maxObjects, maxPairs: maxPairs}
	if err := bp.init(); err != nil {
		bp.Release()
		return nil, err
	}
	return bp, nil
}

func (bp *BroadPhase) init() error {
	d := bp.dev
	var err error
	// 16 bytes per sphere, 8 per pair
	if bp.spheres, err = d.newBuffer("spheres", uint64(bp.maxObjects)*16,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst); err != nil {
		return err
	}
	if bp.pairs, err = d.newBuffer("pairs", uint64(bp.maxPairs)*8,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc); err != nil {
		return err
	}
	if bp.count, err = d.newBuffer("pairCount", 4,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst); err != nil {
		return err
	}
	if bp.objects, err = d.newBufferWithData("objectCount", wgpu.ToBytes([]uint32{0}),
		wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst); err != nil {
		return err
	}

	bp.layout, err = d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "broadphase_layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}},
			{Binding: 1, Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}},
			{Binding: 2, Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}},
			{Binding: 3, Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}

	bp.bindGroup, err = d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "broadphase_bindgroup",
		Layout: bp.layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: bp.spheres.buf, Size: bp.spheres.size},
			{Binding: 1, Buffer: bp.pairs.buf, Size: bp.pairs.size},
			{Binding: 2, Buffer: bp.count.buf, Size: bp.count.size},
			{Binding: 3, Buffer: bp.objects.buf, Size: bp.objects.size},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}

	pipelineLayout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "broadphase_pipeline_layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bp.layout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	defer pipelineLayout.Release()

	shader, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "broadphase_shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: broadPhaseShader},
	})
	if err != nil {
		return fmt.Errorf("compile broad phase shader: %w", err)
	}
	defer shader.Release()

	bp.pipeline, err = d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "broadphase_pipeline",
		Layout: pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     shader,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return fmt.Errorf("create broad phase pipeline: %w", err)
	}
	return nil
}

// Overlaps finds the overlapping pairs among spheres. Spheres past the
// capacity are ignored and results past the pair capacity are dropped.
// Pair order is unspecified.
func (bp *BroadPhase) Overlaps(spheres []rl.Vector4) ([]Pair, error) {
	if len(spheres) == 0 {
		return nil, nil
	}
	if uint32(len(spheres)) > bp.maxObjects {
		spheres = spheres[:bp.maxObjects]
	}
	n := uint32(len(spheres))
	d := bp.dev
	d.write(bp.spheres, wgpu.ToBytes(spheres))
	d.write(bp.count, wgpu.ToBytes([]uint32{0}))
	d.write(bp.objects, wgpu.ToBytes([]uint32{n}))

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(bp.pipeline)
	pass.SetBindGroup(0, bp.bindGroup, nil)
	pass.DispatchWorkgroups((n+workgroupSize-1)/workgroupSize, 1, 1)
	pass.End()
	pass.Release()
	commands, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("finish encoder: %w", err)
	}
	d.queue.Submit(commands)
	commands.Release()

	countData, err := d.read(bp.count)
	if err != nil {
		return nil, err
	}
	found := min(wgpu.FromBytes[uint32](countData)[0], bp.maxPairs)
	if found == 0 {
		return nil, nil
	}
	pairData, err := d.read(bp.pairs)
	if err != nil {
		return nil, err
	}
	pairs := make([]Pair, found)
	copy(pairs, wgpu.FromBytes[Pair](pairData)[:found])
	return pairs, nil
}

// Release frees the GPU resources of bp but not its device.
func (bp *BroadPhase) Release() {
	if bp.pipeline != nil {
		bp.pipeline.Release()
	}
	if bp.bindGroup != nil {
		bp.bindGroup.Release()
	}
	if bp.layout != nil {
		bp.layout.Release()
	}
	bp.spheres.release()
	bp.pairs.release()
	bp.count.release()
	bp.objects.release()
}
