// Package shaders embeds the fragment shaders the game texture can be drawn
// with. All of them share the same vertex shader, drawing a full screen quad.
package shaders

import (
	"embed"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
)

//go:embed *.vert *.frag
var dir embed.FS

const DefaultName = "Passthrough"

const vertexFile = "quad.vert"

// Names returns the names of all fragment shaders.
func Names() []string {
	dirents, err := dir.ReadDir(".")
	if err != nil {
		panic(err)
	}

	var names []string
	for _, dirent := range dirents {
		if name, ok := strings.CutSuffix(dirent.Name(), ".frag"); ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Valid reports whether name is the name of an embedded shader.
func Valid(name string) bool { return slices.Contains(Names(), name) }

// Program compiles and links the program drawing with the named fragment
// shader. It must be called with a current OpenGL context.
func Program(name string) (uint32, error) {
	vert, err := compile(vertexFile, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	frag, err := compile(name+".frag", gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}
	return link(vert, frag)
}

func compile(file string, typ uint32) (uint32, error) {
	buf, err := dir.ReadFile(path.Clean(file))
	if err != nil {
		return 0, fmt.Errorf("shader %s: %v", file, err)
	}
	csrc, free := gl.Strs(string(buf) + "\x00")
	sh := gl.CreateShader(typ)
	gl.ShaderSource(sh, 1, csrc, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	if gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status); status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLength)

		log := make([]byte, logLength+1)
		gl.GetShaderInfoLog(sh, logLength, nil, &log[0])

		return 0, fmt.Errorf("shader %s compile error: %v", file, string(log))
	}
	return sh, nil
}

func link(vert, frag uint32) (uint32, error) {
	prg := gl.CreateProgram()
	gl.AttachShader(prg, vert)
	gl.AttachShader(prg, frag)
	gl.LinkProgram(prg)

	var status int32
	if gl.GetProgramiv(prg, gl.LINK_STATUS, &status); status == gl.FALSE {
		var logLength int32
		var glLog [256]byte
		gl.GetProgramInfoLog(prg, int32(len(glLog)), &logLength, &glLog[0])
		return 0, fmt.Errorf("shader program link error: %v", string(glLog[:logLength]))
	}

	gl.DeleteShader(vert)
	gl.DeleteShader(frag)
	return prg, nil
}
