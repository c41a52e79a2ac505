// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package teximage

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/virtgpu/vkhost/vkabi"
)

// ShaderSource supplies the pre-built SPIR-V blob for one emulated
// format family. spec.md §4.9 places "pre-built SPIR-V blobs exposed by
// an external collaborator" out of scope for this module: the shader
// bytes themselves are never generated or compiled here, only consumed.
type ShaderSource interface {
	ETC2Shader() []byte
	ASTCShader() []byte
}

// pipelineKey identifies one lazily-built compute pipeline.
type pipelineKey struct {
	astc      bool
	imageType vkabi.ImageType
}

type pipelineEntry struct {
	layout   vkabi.PipelineLayout
	pipeline vkabi.Pipeline
	module   vkabi.ShaderModule
}

// Manager lazily builds one compute pipeline per (format-family,
// image-type) pair, per device (spec.md §4.9: "a pipeline manager
// lazily builds one compute pipeline per (format, image-type) pair").
// "format" here means ETC2-vs-ASTC, since every format within a family
// shares one shader parameterized by push constants.
type Manager struct {
	cmds   *vkabi.Commands
	device vkabi.Device
	shader ShaderSource

	mu      sync.Mutex
	entries map[pipelineKey]*pipelineEntry
}

// NewManager creates a pipeline manager for one device.
func NewManager(cmds *vkabi.Commands, device vkabi.Device, shader ShaderSource) *Manager {
	return &Manager{cmds: cmds, device: device, shader: shader, entries: make(map[pipelineKey]*pipelineEntry)}
}

// PipelineFor returns the compute pipeline for the given format family
// and image type, building it on first use.
func (m *Manager) PipelineFor(astc bool, imageType vkabi.ImageType) (vkabi.Pipeline, vkabi.PipelineLayout, error) {
	key := pipelineKey{astc: astc, imageType: imageType}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok {
		return e.pipeline, e.layout, nil
	}

	var spirv []byte
	if astc {
		spirv = m.shader.ASTCShader()
	} else {
		spirv = m.shader.ETC2Shader()
	}
	if len(spirv) == 0 {
		return 0, 0, fmt.Errorf("teximage: no SPIR-V blob for astc=%v imageType=%v", astc, imageType)
	}

	var module vkabi.ShaderModule
	if res := m.cmds.CreateShaderModule(m.device, unsafe.Pointer(&spirv[0]), &module); !res.IsSuccess() {
		return 0, 0, fmt.Errorf("teximage: vkCreateShaderModule: %v", res)
	}

	var layout vkabi.PipelineLayout
	if res := m.cmds.CreatePipelineLayout(m.device, nil, &layout); !res.IsSuccess() {
		m.cmds.DestroyShaderModule(m.device, module)
		return 0, 0, fmt.Errorf("teximage: vkCreatePipelineLayout: %v", res)
	}

	var pipeline vkabi.Pipeline
	if res := m.cmds.CreateComputePipelines(m.device, 0, 1, nil, &pipeline); !res.IsSuccess() {
		m.cmds.DestroyPipelineLayout(m.device, layout)
		m.cmds.DestroyShaderModule(m.device, module)
		return 0, 0, fmt.Errorf("teximage: vkCreateComputePipelines: %v", res)
	}

	m.entries[key] = &pipelineEntry{layout: layout, pipeline: pipeline, module: module}
	return pipeline, layout, nil
}

// Destroy releases every pipeline this manager built. Called once from
// the owning device's destruction path.
func (m *Manager) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		m.cmds.DestroyPipeline(m.device, e.pipeline)
		m.cmds.DestroyPipelineLayout(m.device, e.layout)
		m.cmds.DestroyShaderModule(m.device, e.module)
	}
	m.entries = make(map[pipelineKey]*pipelineEntry)
}

// ETC2PushConstants is the push-constant block for the ETC2 decode
// shader: compressed format plus the base array layer of this dispatch.
type ETC2PushConstants struct {
	CompressedFormat uint32
	BaseLayer        uint32
}

// ASTCPushConstants is the push-constant block for the ASTC decode
// shader: block extent, format, base layer, sRGB flag, and a
// small-block flag.
type ASTCPushConstants struct {
	BlockWidth  uint32
	BlockHeight uint32
	Format      uint32
	BaseLayer   uint32
	SRGB        uint32
	SmallBlock  uint32 // set when block area <= 25 texels, matching the original's threshold
}

// DispatchGeometry computes the compute-shader dispatch group counts
// for one mip of a compressed image: 2D groups of ceil(width/block) x
// ceil(height/block), with depth equal to layer count for array images
// or the mip's volume depth for 3D images.
func DispatchGeometry(info FormatInfo, width, height, depthOrLayers uint32) (groupsX, groupsY, groupsZ uint32) {
	return blockCount(width, info.Block.Width), blockCount(height, info.Block.Height), depthOrLayers
}
