package bind_group_provider

// BufferWrite describes a single GPU buffer write operation targeting a
// BindGroupProvider at a given byte offset. Writes are staged CPU-side during
// frame preparation and flushed in one batch via Renderer.WriteBuffers.
type BufferWrite struct {
	Provider BindGroupProvider
	// Binding selects the uniform buffer to write. Ignored when Instance is set.
	Binding int
	// Instance targets the provider's per-instance attribute buffer instead of
	// a bound uniform buffer.
	Instance bool
	Offset   uint64
	Data     []byte
}
