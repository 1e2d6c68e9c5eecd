package shaders

import (
	_ "embed"
)

//go:embed scene.wgsl
var SceneWGSL string

//go:embed trail.wgsl
var TrailWGSL string

//go:embed post.wgsl
var PostWGSL string

//go:embed text.wgsl
var TextWGSL string
