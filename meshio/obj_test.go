package meshio

import (
	"strings"
	"testing"
)

const quadOBJ = `# fixture
v -0.5 -0.5 0
v 0.5 -0.5 0
v 0.5 0.5 0
v -0.5 0.5 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1 2/2 3/3
f 1/1 3/3 4/4
`

func TestDecodeOBJQuad(t *testing.T) {
	topo, err := DecodeOBJ(strings.NewReader(quadOBJ))
	if err != nil {
		t.Fatal(err)
	}
	if len(topo.Verts) != 4 || len(topo.Faces) != 2 {
		t.Fatalf("got %d verts %d faces, want 4 and 2", len(topo.Verts), len(topo.Faces))
	}
	if !topo.HasUV() {
		t.Fatal("UV layout not detected")
	}
	if topo.Faces[0] != [3]int{0, 1, 2} {
		t.Errorf("first face = %v, want [0 1 2]", topo.Faces[0])
	}
	if topo.UVFaces[1] != [3]int{0, 2, 3} {
		t.Errorf("second UV face = %v, want [0 2 3]", topo.UVFaces[1])
	}
	if topo.Verts[2].X != 0.5 || topo.Verts[2].Y != 0.5 {
		t.Errorf("vertex 2 = %v", topo.Verts[2])
	}
}

func TestDecodeOBJFanTriangulation(t *testing.T) {
	in := `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`
	topo, err := DecodeOBJ(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(topo.Faces) != 2 {
		t.Fatalf("quad face triangulated into %d faces, want 2", len(topo.Faces))
	}
	if topo.Faces[0] != [3]int{0, 1, 2} || topo.Faces[1] != [3]int{0, 2, 3} {
		t.Errorf("fan = %v", topo.Faces)
	}
}

func TestDecodeOBJNegativeIndices(t *testing.T) {
	in := `v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
`
	topo, err := DecodeOBJ(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if topo.Faces[0] != [3]int{0, 1, 2} {
		t.Errorf("face = %v, want [0 1 2]", topo.Faces[0])
	}
}

func TestDecodeOBJNormalOnlyCorners(t *testing.T) {
	in := `v 0 0 0
v 1 0 0
v 0 1 0
f 1//1 2//1 3//1
`
	topo, err := DecodeOBJ(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(topo.UVFaces) != 0 {
		t.Errorf("v//vn corners produced UV faces: %v", topo.UVFaces)
	}
}

func TestDecodeOBJErrors(t *testing.T) {
	for _, test := range []struct {
		name string
		in   string
	}{
		{name: "no faces", in: "v 0 0 0\n"},
		{name: "face index out of range", in: "v 0 0 0\nv 1 0 0\nf 1 2 3\n"},
		{name: "bad float", in: "v 0 zero 0\n"},
		{name: "short vertex", in: "v 0 0\n"},
		{name: "short face", in: "v 0 0 0\nv 1 0 0\nf 1 2\n"},
		{name: "mixed uv corners", in: quadOBJ + "f 1 2/2 4\n"},
	} {
		if _, err := DecodeOBJ(strings.NewReader(test.in)); err == nil {
			t.Errorf("%s: decode succeeded, want error", test.name)
		}
	}
}
