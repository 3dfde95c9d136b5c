// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package linear

import (
	"github.com/chewxy/math32"
)

// M3 is a column-major 3x3 matrix of float32.
type M3 [3]V3

// I makes m an identity matrix.
func (m *M3) I() { *m = M3{{1}, {0, 1}, {0, 0, 1}} }

// Mul sets m to contain l ⋅ r.
func (m *M3) Mul(l, r *M3) {
	var n M3
	for i := range n {
		for j := range n {
			for k := range n {
				n[i][j] += l[k][j] * r[i][k]
			}
		}
	}
	*m = n
}

// Transpose sets m to contain the transpose of n.
func (m *M3) Transpose(n *M3) {
	t := *n
	for i := range m {
		for j := range m {
			m[i][j] = t[j][i]
		}
	}
}

// Invert sets m to contain the inverse of n.
func (m *M3) Invert(n *M3) {
	c := *n
	s0 := c[1][1]*c[2][2] - c[1][2]*c[2][1]
	s1 := c[1][0]*c[2][2] - c[1][2]*c[2][0]
	s2 := c[1][0]*c[2][1] - c[1][1]*c[2][0]
	idet := 1 / (c[0][0]*s0 - c[0][1]*s1 + c[0][2]*s2)
	m[0][0] = s0 * idet
	m[0][1] = -(c[0][1]*c[2][2] - c[0][2]*c[2][1]) * idet
	m[0][2] = (c[0][1]*c[1][2] - c[0][2]*c[1][1]) * idet
	m[1][0] = -s1 * idet
	m[1][1] = (c[0][0]*c[2][2] - c[0][2]*c[2][0]) * idet
	m[1][2] = -(c[0][0]*c[1][2] - c[0][2]*c[1][0]) * idet
	m[2][0] = s2 * idet
	m[2][1] = -(c[0][0]*c[2][1] - c[0][1]*c[2][0]) * idet
	m[2][2] = (c[0][0]*c[1][1] - c[0][1]*c[1][0]) * idet
}

// FromM4 sets m to contain the upper-left 3x3
// sub-matrix of n.
func (m *M3) FromM4(n *M4) {
	for i := range m {
		m[i] = V3{n[i][0], n[i][1], n[i][2]}
	}
}

// M4 is a column-major 4x4 matrix of float32.
type M4 [4]V4

// I makes m an identity matrix.
func (m *M4) I() { *m = M4{{1}, {0, 1}, {0, 0, 1}, {0, 0, 0, 1}} }

// Mul sets m to contain l ⋅ r.
func (m *M4) Mul(l, r *M4) {
	var n M4
	for i := range n {
		for j := range n {
			for k := range n {
				n[i][j] += l[k][j] * r[i][k]
			}
		}
	}
	*m = n
}

// Transpose sets m to contain the transpose of n.
func (m *M4) Transpose(n *M4) {
	t := *n
	for i := range m {
		for j := range m {
			m[i][j] = t[j][i]
		}
	}
}

// Translate sets m to contain a translation.
func (m *M4) Translate(x, y, z float32) {
	m.I()
	m[3] = V4{x, y, z, 1}
}

// Scale sets m to contain a scale.
func (m *M4) Scale(x, y, z float32) { *m = M4{{x}, {1: y}, {2: z}, {3: 1}} }

// RotateQ sets m to contain the rotation described
// by the unit quaternion q.
func (m *M4) RotateQ(q *Q) {
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.R
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z
	*m = M4{
		{1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy), 0},
		{2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx), 0},
		{2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy), 0},
		{0, 0, 0, 1},
	}
}

// Point returns m ⋅ [p 1], discarding w.
func (m *M4) Point(p *V3) V3 {
	v := V4{p[0], p[1], p[2], 1}
	v.Mul(m, &v)
	return V3{v[0], v[1], v[2]}
}

// Dir returns m ⋅ [d 0], discarding w.
func (m *M4) Dir(d *V3) V3 {
	v := V4{d[0], d[1], d[2], 0}
	v.Mul(m, &v)
	return V3{v[0], v[1], v[2]}
}

// Translation returns the translation of m.
func (m *M4) Translation() V3 { return V3{m[3][0], m[3][1], m[3][2]} }

// Lerp sets m to contain the per-element linear
// interpolation between l and r at t.
// It is used to interpolate poses across simulation
// steps, so the basis may come out slightly skewed
// when l and r differ by a large rotation.
func (m *M4) Lerp(l, r *M4, t float32) {
	for i := range m {
		m[i].Lerp(&l[i], &r[i], t)
	}
}

// LookAt sets m to contain a right-handed view matrix.
func (m *M4) LookAt(center, eye, up *V3) {
	var f, s, u V3
	f.Sub(center, eye)
	f.Norm(&f)
	s.Cross(&f, up)
	s.Norm(&s)
	u.Cross(&s, &f)
	*m = M4{
		{s[0], u[0], -f[0], 0},
		{s[1], u[1], -f[1], 0},
		{s[2], u[2], -f[2], 0},
		{-s.Dot(eye), -u.Dot(eye), f.Dot(eye), 1},
	}
}

// Perspective sets m to contain a perspective projection
// with depth in the [0, 1] range.
func (m *M4) Perspective(yfov, aspect, znear, zfar float32) {
	ct := 1 / math32.Tan(yfov*0.5)
	*m = M4{
		{0: ct / aspect},
		{1: ct},
		{2: zfar / (znear - zfar), 3: -1},
		{2: zfar * znear / (znear - zfar)},
	}
}

// Invert sets m to contain the inverse of n.
func (m *M4) Invert(n *M4) {
	c := *n
	s0 := c[0][0]*c[1][1] - c[0][1]*c[1][0]
	s1 := c[0][0]*c[1][2] - c[0][2]*c[1][0]
	s2 := c[0][0]*c[1][3] - c[0][3]*c[1][0]
	s3 := c[0][1]*c[1][2] - c[0][2]*c[1][1]
	s4 := c[0][1]*c[1][3] - c[0][3]*c[1][1]
	s5 := c[0][2]*c[1][3] - c[0][3]*c[1][2]
	c0 := c[2][0]*c[3][1] - c[2][1]*c[3][0]
	c1 := c[2][0]*c[3][2] - c[2][2]*c[3][0]
	c2 := c[2][0]*c[3][3] - c[2][3]*c[3][0]
	c3 := c[2][1]*c[3][2] - c[2][2]*c[3][1]
	c4 := c[2][1]*c[3][3] - c[2][3]*c[3][1]
	c5 := c[2][2]*c[3][3] - c[2][3]*c[3][2]
	idet := 1 / (s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0)
	m[0][0] = (c5*c[1][1] - c4*c[1][2] + c3*c[1][3]) * idet
	m[0][1] = (-c5*c[0][1] + c4*c[0][2] - c3*c[0][3]) * idet
	m[0][2] = (s5*c[3][1] - s4*c[3][2] + s3*c[3][3]) * idet
	m[0][3] = (-s5*c[2][1] + s4*c[2][2] - s3*c[2][3]) * idet
	m[1][0] = (-c5*c[1][0] + c2*c[1][2] - c1*c[1][3]) * idet
	m[1][1] = (c5*c[0][0] - c2*c[0][2] + c1*c[0][3]) * idet
	m[1][2] = (-s5*c[3][0] + s2*c[3][2] - s1*c[3][3]) * idet
	m[1][3] = (s5*c[2][0] - s2*c[2][2] + s1*c[2][3]) * idet
	m[2][0] = (c4*c[1][0] - c2*c[1][1] + c0*c[1][3]) * idet
	m[2][1] = (-c4*c[0][0] + c2*c[0][1] - c0*c[0][3]) * idet
	m[2][2] = (s4*c[3][0] - s2*c[3][1] + s0*c[3][3]) * idet
	m[2][3] = (-s4*c[2][0] + s2*c[2][1] - s0*c[2][3]) * idet
	m[3][0] = (-c3*c[1][0] + c1*c[1][1] - c0*c[1][2]) * idet
	m[3][1] = (c3*c[0][0] - c1*c[0][1] + c0*c[0][2]) * idet
	m[3][2] = (-s3*c[3][0] + s1*c[3][1] - s0*c[3][2]) * idet
	m[3][3] = (s3*c[2][0] - s1*c[2][1] + s0*c[2][2]) * idet
}
