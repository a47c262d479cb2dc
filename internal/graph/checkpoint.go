package graph

import (
	"fmt"
	"io"

	"github.com/born-ml/braincore/internal/layer"
	"github.com/born-ml/braincore/internal/serialization"
)

// SaveCheckpoint writes the values of every trainable parameter to w.
//
// Tensors are named after their buffers ("<layer>.<parameter>") and written
// in topological order. Step, Loss and Metadata are taken from header.
func (g *Graph) SaveCheckpoint(w io.Writer, header serialization.Header) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	tensors, err := g.snapshot()
	if err != nil {
		return err
	}
	if err := serialization.Write(w, header, tensors); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	g.log.Debug("checkpoint saved", "tensors", len(tensors), "step", header.Step)
	return nil
}

// LoadCheckpoint restores trainable parameter values from r.
//
// Every parameter must be present with a matching length and the checkpoint
// may not hold tensors the graph does not own. Nothing is uploaded unless
// the whole checkpoint matches.
func (g *Graph) LoadCheckpoint(r io.Reader) (serialization.Header, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.training(); err != nil {
		return serialization.Header{}, err
	}
	header, tensors, err := serialization.Read(r)
	if err != nil {
		return serialization.Header{}, fmt.Errorf("read checkpoint: %w", err)
	}
	if err := g.restore(tensors); err != nil {
		return serialization.Header{}, err
	}
	g.log.Debug("checkpoint loaded", "tensors", len(tensors), "step", header.Step)
	return header, nil
}

// ExportSafeTensors writes the values of every trainable parameter to w in
// SafeTensors format, for use by other frameworks.
func (g *Graph) ExportSafeTensors(w io.Writer, metadata map[string]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	tensors, err := g.snapshot()
	if err != nil {
		return err
	}
	if err := serialization.WriteSafeTensors(w, metadata, tensors); err != nil {
		return fmt.Errorf("write safetensors: %w", err)
	}
	return nil
}

// ImportSafeTensors restores trainable parameter values from a SafeTensors
// file and returns its metadata. Matching rules are those of LoadCheckpoint;
// shapes are ignored, only element counts must agree.
func (g *Graph) ImportSafeTensors(r io.Reader) (map[string]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.training(); err != nil {
		return nil, err
	}
	metadata, tensors, err := serialization.ReadSafeTensors(r)
	if err != nil {
		return nil, fmt.Errorf("read safetensors: %w", err)
	}
	if err := g.restore(tensors); err != nil {
		return nil, err
	}
	return metadata, nil
}

// snapshot downloads every trainable parameter in topological order.
func (g *Graph) snapshot() ([]serialization.Tensor, error) {
	if err := g.training(); err != nil {
		return nil, err
	}
	params, err := g.parameters()
	if err != nil {
		return nil, err
	}
	tensors := make([]serialization.Tensor, 0, len(params))
	for _, p := range params {
		values, err := g.engine.Download(p.Values)
		if err != nil {
			return nil, fmt.Errorf("download %s: %w", p.Values.Name(), err)
		}
		tensors = append(tensors, serialization.Tensor{Name: p.Values.Name(), Values: values})
	}
	return tensors, nil
}

// restore uploads tensors into the parameters of the same name. All tensors
// are checked before the first upload.
func (g *Graph) restore(tensors []serialization.Tensor) error {
	byName := make(map[string][]float32, len(tensors))
	for _, t := range tensors {
		byName[t.Name] = t.Values
	}

	params, err := g.parameters()
	if err != nil {
		return err
	}
	for _, p := range params {
		values, ok := byName[p.Values.Name()]
		if !ok {
			return fmt.Errorf("%w: missing tensor %q", ErrCheckpoint, p.Values.Name())
		}
		if len(values) != p.Values.Len() {
			return fmt.Errorf("%w: %w", ErrCheckpoint, &layer.SizeMismatchError{
				What: "tensor " + p.Values.Name(),
				Want: p.Values.Len(),
				Got:  len(values),
			})
		}
	}
	if len(byName) != len(params) {
		return fmt.Errorf("%w: checkpoint holds %d tensors, graph has %d parameters", ErrCheckpoint, len(byName), len(params))
	}

	for _, p := range params {
		if err := g.engine.Upload(p.Values, byName[p.Values.Name()]); err != nil {
			return err
		}
	}
	return nil
}

// parameters returns the parameter pairs of all trainable layers in
// topological order.
func (g *Graph) parameters() ([]layer.Parameter, error) {
	var all []layer.Parameter
	for _, n := range g.order {
		if n.trainable == nil {
			continue
		}
		params, err := nodeParameters(n)
		if err != nil {
			return nil, err
		}
		all = append(all, params...)
	}
	return all, nil
}
