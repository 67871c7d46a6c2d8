package rt

// Camera generates primary rays from normalized device coordinates in
// [-1,1]^2 (§4.6). Implementations live outside this package (the CLI
// adapts the host's render.Camera with a CastRay method) so the core never
// depends on a windowing/host camera representation.
type Camera interface {
	CastRay(ndcX, ndcY float32) Ray
	Position() Float4
	Forward() Float4
}
