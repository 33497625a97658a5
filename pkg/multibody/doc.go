// Package multibody defines the frame descriptor of a kinematic tree: a
// named, typed reference point rigidly attached to a joint, optionally
// carrying an inertia.
//
// A Frame is a plain value. It does not validate its joint or frame indices
// and never touches the tree it belongs to; the owning model (see package
// model) assigns indices and checks them when a frame is registered.
//
// Frames are generic over the scalar precision of their placement and
// inertia. Cast converts between precisions:
//
//	f := multibody.NewFrame("wrist", 3, spatial.Identity[float64](), multibody.Body)
//	g := multibody.Cast[float32](f)
package multibody
