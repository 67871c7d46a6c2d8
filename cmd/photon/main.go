// photon renders a 3D model (OBJ/GLTF/GLB) with a physically based Monte
// Carlo path tracer. An interactive terminal preview lets you frame the shot
// with an orbiting camera before committing to the (possibly multi-minute)
// final render.
//
// Preview controls:
//
//	Mouse drag  - Orbit the model (yaw/pitch)
//	Scroll      - Zoom in/out
//	W/S/A/D     - Pitch and yaw
//	Q/E         - Roll left/right
//	Space       - Apply random impulse
//	R           - Reset view
//	Enter       - Freeze the camera and start the path-traced render
//	Esc         - Quit without rendering
package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/spf13/cobra"

	"github.com/taigrr/photon/internal/logging"
	"github.com/taigrr/photon/pkg/math3d"
	"github.com/taigrr/photon/pkg/models"
	"github.com/taigrr/photon/pkg/render"
	"github.com/taigrr/photon/pkg/rt"
	"github.com/taigrr/photon/pkg/rt/kdtree"
	"github.com/taigrr/photon/pkg/rt/trace"
)

// renderConfig collects the flags that drive a render: rt.Options fields
// plus host-only concerns (output path, image size, preview toggle) that
// have no meaning inside the core.
type renderConfig struct {
	outputPath string
	width      int
	height     int
	preview    bool
	texture    string
	bg         string
	fps        int

	samplesPerPixel int
	maxBounces      int
	apertureSize    float64
	apertureBlades  int
	exposure        float64
	threads         int
	tileSize        int
	integrator      string
}

func main() {
	cfg := &renderConfig{}

	root := &cobra.Command{
		Use:           "photon <model.obj|model.glb>",
		Short:         "Path-traced renderer with an interactive framing preview",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], cfg)
		},
	}

	flags := root.Flags()
	flags.StringVarP(&cfg.outputPath, "output", "o", "render.png", "Output PNG path")
	flags.IntVar(&cfg.width, "width", 960, "Output image width")
	flags.IntVar(&cfg.height, "height", 540, "Output image height")
	flags.BoolVar(&cfg.preview, "preview", true, "Show the interactive framing preview before rendering")
	flags.StringVar(&cfg.texture, "texture", "", "Path to a texture image for the preview (PNG/JPG)")
	flags.StringVar(&cfg.bg, "bg", "30,30,40", "Background color (R,G,B), used by the preview and as the render's ambient environment")
	flags.IntVar(&cfg.fps, "fps", 60, "Preview target FPS")

	defaults := rt.DefaultOptions()
	flags.IntVar(&cfg.samplesPerPixel, "samples", defaults.SamplesPerPixel, "Samples per pixel")
	flags.IntVar(&cfg.maxBounces, "max-bounces", defaults.MaxBounces, "Maximum bounce-stack depth")
	flags.Float64Var(&cfg.apertureSize, "aperture", float64(defaults.ApertureSize), "Thin-lens aperture radius (0 = pinhole)")
	flags.IntVar(&cfg.apertureBlades, "aperture-blades", defaults.ApertureBlades, "Aperture n-gon blade count")
	flags.Float64Var(&cfg.exposure, "exposure", float64(defaults.Exposure), "Tone-map exposure multiplier")
	flags.IntVar(&cfg.threads, "threads", defaults.Threads, "Worker thread count")
	flags.IntVar(&cfg.tileSize, "tile-size", defaults.TileSize, "Tile width/height in pixels")
	flags.StringVar(&cfg.integrator, "integrator", defaults.Integrator.String(), "path|normals|fresnel|ambientOcclusion")

	if err := fang.Execute(context.Background(), root); err != nil {
		os.Exit(1)
	}
}

func (cfg *renderConfig) toOptions() (rt.Options, error) {
	integrator, err := rt.ParseIntegrator(cfg.integrator)
	if err != nil {
		return rt.Options{}, err
	}
	opts := rt.Options{
		SamplesPerPixel: cfg.samplesPerPixel,
		MaxBounces:      cfg.maxBounces,
		ApertureSize:    float32(cfg.apertureSize),
		ApertureBlades:  cfg.apertureBlades,
		Exposure:        float32(cfg.exposure),
		Threads:         cfg.threads,
		TileSize:        cfg.tileSize,
		Integrator:      integrator,
	}
	if err := opts.Validate(); err != nil {
		return rt.Options{}, err
	}
	return opts, nil
}

func run(ctx context.Context, modelPath string, cfg *renderConfig) error {
	opts, err := cfg.toOptions()
	if err != nil {
		return fmt.Errorf("render options: %w", err)
	}

	mesh, texture, err := loadMesh(modelPath, cfg.texture)
	if err != nil {
		return err
	}
	logging.Default.Infof("loaded %s (%d vertices, %d triangles, %d materials)",
		filepath.Base(modelPath), mesh.VertexCount(), mesh.TriangleCount(), mesh.MaterialCount())

	centerAndScale(mesh)

	// Built once, up front: both the preview's material tint and the
	// offline trace consume the same []rt.Triangle/[]rt.Material, so the
	// preview's color cue and the final render's BSDF are never derived
	// from two different readings of the source mesh.
	tris, mats := buildScene(mesh)

	camera := render.NewCamera()
	camera.SetFOV(math.Pi / 3)
	camera.SetClipPlanes(0.1, 100)
	camera.SetPosition(math3d.V3(0, 0, 5))
	camera.LookAt(math3d.V3(0, 0, 0))

	if cfg.preview {
		confirmed, err := runPreview(mesh, texture, mats, camera, cfg)
		if err != nil {
			return fmt.Errorf("preview: %w", err)
		}
		if !confirmed {
			logging.Default.Infof("render cancelled from preview")
			return nil
		}
	}

	camera.SetAspectRatio(float64(cfg.width) / float64(cfg.height))

	bgColor := parseBGColorFloats(cfg.bg)
	env := rt.AmbientEnvironment(rt.F4(bgColor[0], bgColor[1], bgColor[2], 1))
	scene := trace.NewScene(tris, mats, env, kdtree.DefaultBuildOptions())

	logging.Default.Infof("rendering %dx%d at %d samples/pixel, %d threads",
		cfg.width, cfg.height, opts.SamplesPerPixel, opts.Threads)

	img := image.NewRGBA(image.Rect(0, 0, cfg.width, cfg.height))
	start := time.Now()
	err = trace.Render(ctx, scene, newPathCamera(camera), cfg.width, cfg.height, opts, func(x, y int, rgba rt.Float4) {
		img.SetRGBA(x, y, tonemappedToRGBA(rgba))
	})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	logging.Default.Infof("render finished in %s", time.Since(start).Round(time.Millisecond))

	if err := savePNG(cfg.outputPath, img); err != nil {
		return fmt.Errorf("save output: %w", err)
	}
	logging.Default.Infof("wrote %s", cfg.outputPath)
	return nil
}

// tonemappedToRGBA converts an already tone-mapped [0,1] linear color to a
// gamma-encoded 8-bit-per-channel pixel for PNG output.
func tonemappedToRGBA(c rt.Float4) color.RGBA {
	return color.RGBA{
		R: srgbEncode(c.X),
		G: srgbEncode(c.Y),
		B: srgbEncode(c.Z),
		A: 255,
	}
}

func srgbEncode(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Pow(float64(v), 1/2.2)*255 + 0.5)
}

func savePNG(path string, img *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func parseBGColorFloats(s string) [3]float32 {
	r, g, b := parseBGColorBytes(s)
	return [3]float32{float32(r) / 255, float32(g) / 255, float32(b) / 255}
}

func parseBGColorBytes(s string) (r, g, b uint8) {
	r, g, b = 30, 30, 40
	fmt.Sscanf(s, "%d,%d,%d", &r, &g, &b)
	return
}

func loadMesh(modelPath, texturePath string) (*models.Mesh, *render.Texture, error) {
	ext := strings.ToLower(filepath.Ext(modelPath))

	var mesh *models.Mesh
	var texture *render.Texture
	var err error

	if texturePath != "" {
		texture, err = render.LoadTexture(texturePath)
		if err != nil {
			logging.Default.Warnf("could not load texture: %v", err)
			texture = nil
		}
	}

	switch ext {
	case ".glb", ".gltf":
		var embeddedImg image.Image
		mesh, embeddedImg, err = models.LoadGLBWithTexture(modelPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load model: %w", err)
		}
		if texture == nil && embeddedImg != nil {
			texture = render.TextureFromImage(embeddedImg)
		}
	case ".obj":
		mesh, err = models.LoadOBJ(modelPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load model: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("unsupported format: %s (use .obj or .glb)", ext)
	}

	if texture == nil {
		texture = render.NewCheckerTexture(64, 64, 8, render.RGB(200, 200, 200), render.RGB(100, 100, 100))
	}

	return mesh, texture, nil
}

func centerAndScale(mesh *models.Mesh) {
	mesh.CalculateBounds()
	center := mesh.Center()
	size := mesh.Size()
	maxDim := math.Max(size.X, math.Max(size.Y, size.Z))
	if maxDim > 0 {
		scale := 2.0 / maxDim
		transform := math3d.Scale(math3d.V3(scale, scale, scale)).Mul(math3d.Translate(center.Scale(-1)))
		mesh.Transform(transform)
	}
}

// RotationAxis tracks position and velocity for one rotation axis with spring decay.
type RotationAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64
}

// NewRotationAxis creates an axis with harmonica spring for smooth velocity decay.
func NewRotationAxis(fps int) RotationAxis {
	return RotationAxis{
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update applies velocity to position and decays velocity toward 0 using spring.
func (a *RotationAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

// RotationState holds rotation with harmonica spring physics.
type RotationState struct {
	Pitch, Yaw, Roll RotationAxis
	fps              int
}

func NewRotationState(fps int) *RotationState {
	return &RotationState{
		Pitch: NewRotationAxis(fps),
		Yaw:   NewRotationAxis(fps),
		Roll:  NewRotationAxis(fps),
		fps:   fps,
	}
}

func (r *RotationState) Update() {
	r.Pitch.Update()
	r.Yaw.Update()
	r.Roll.Update()
}

func (r *RotationState) ApplyImpulse(pitch, yaw, roll float64) {
	r.Pitch.Velocity += pitch
	r.Yaw.Velocity += yaw
	r.Roll.Velocity += roll
}

func (r *RotationState) Reset() {
	r.Pitch = NewRotationAxis(r.fps)
	r.Yaw = NewRotationAxis(r.fps)
	r.Roll = NewRotationAxis(r.fps)
}

// Transform builds the rotation matrix for the current spring state.
func (r *RotationState) Transform() math3d.Mat4 {
	return math3d.RotateX(r.Pitch.Position).
		Mul(math3d.RotateY(r.Yaw.Position)).
		Mul(math3d.RotateZ(r.Roll.Position))
}

// runPreview drives the orbiting terminal preview until the user presses
// Enter (confirmed=true) or cancels with Escape/Ctrl-C (confirmed=false).
// On confirmation, mesh is rotated in place to match the frozen preview
// orientation and camera is left at its final zoom distance.
func runPreview(mesh *models.Mesh, texture *render.Texture, mats []rt.Material, camera *render.Camera, cfg *renderConfig) (confirmed bool, err error) {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return false, fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return false, fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	fmt.Fprint(os.Stdout, "\x1b[?1003h\x1b[?1006h")
	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	termRenderer := render.NewTerminalRenderer(term, width, height)
	fbWidth, fbHeight := termRenderer.FramebufferSize()
	fb := render.NewFramebuffer(fbWidth, fbHeight)
	camera.SetAspectRatio(float64(fbWidth) / float64(fbHeight))
	rasterizer := render.NewRasterizer(camera, fb)
	wireframe := render.NewWireframe(camera, fb)

	bgR, bgG, bgB := parseBGColorBytes(cfg.bg)

	rotation := NewRotationState(cfg.fps)
	lightDir := math3d.V3(0.5, 1, 0.3).Normalize()
	previewTint := render.DominantPreviewColor(mats)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mouseDown bool
	var lastMouseX, lastMouseY int
	cameraZ := 5.0
	inputTorque := struct{ pitch, yaw, roll float64 }{}
	const torqueStrength = 3.0

	done := make(chan struct{})
	entered := false
	quit := false

	go func() {
		defer close(done)
		for ev := range term.Events() {
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				termRenderer = render.NewTerminalRenderer(term, width, height)
				fbWidth, fbHeight = termRenderer.FramebufferSize()
				fb = render.NewFramebuffer(fbWidth, fbHeight)
				rasterizer = render.NewRasterizer(camera, fb)
				wireframe = render.NewWireframe(camera, fb)
				camera.SetAspectRatio(float64(fbWidth) / float64(fbHeight))

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape"), ev.MatchString("ctrl+c"):
					quit = true
					return
				case ev.MatchString("enter"):
					entered = true
					return
				case ev.MatchString("r"):
					rotation.Reset()
					cameraZ = 5.0
					camera.SetPosition(math3d.V3(0, 0, cameraZ))
				case ev.MatchString("w", "up"):
					inputTorque.pitch = -torqueStrength
				case ev.MatchString("s", "down"):
					inputTorque.pitch = torqueStrength
				case ev.MatchString("a", "left"):
					inputTorque.yaw = -torqueStrength
				case ev.MatchString("d", "right"):
					inputTorque.yaw = torqueStrength
				case ev.MatchString("q"):
					inputTorque.roll = -torqueStrength
				case ev.MatchString("e"):
					inputTorque.roll = torqueStrength
				case ev.MatchString("space"):
					rotation.ApplyImpulse(
						(rand.Float64()-0.5)*1.5,
						(rand.Float64()-0.5)*1.5,
						(rand.Float64()-0.5)*1.5,
					)
				}

			case uv.KeyReleaseEvent:
				switch {
				case ev.MatchString("w"), ev.MatchString("up"), ev.MatchString("s"), ev.MatchString("down"):
					inputTorque.pitch = 0
				case ev.MatchString("a"), ev.MatchString("left"), ev.MatchString("d"), ev.MatchString("right"):
					inputTorque.yaw = 0
				case ev.MatchString("q"), ev.MatchString("e"):
					inputTorque.roll = 0
				}

			case uv.MouseClickEvent:
				mouseDown = true
				lastMouseX, lastMouseY = ev.X, ev.Y

			case uv.MouseReleaseEvent:
				mouseDown = false

			case uv.MouseMotionEvent:
				if mouseDown {
					dx := ev.X - lastMouseX
					dy := ev.Y - lastMouseY
					rotation.ApplyImpulse(float64(dy)*0.03, float64(dx)*0.03, 0)
					lastMouseX, lastMouseY = ev.X, ev.Y
				}

			case uv.MouseWheelEvent:
				switch ev.Button {
				case uv.MouseWheelUp:
					cameraZ = math.Max(1, cameraZ-0.5)
				case uv.MouseWheelDown:
					cameraZ = math.Min(20, cameraZ+0.5)
				}
				camera.SetPosition(math3d.V3(0, 0, cameraZ))
			}
		}
	}()

	targetDuration := time.Second / time.Duration(cfg.fps)
	lastFrame := time.Now()

loop:
	for {
		select {
		case <-sigCtx.Done():
			break loop
		case <-done:
			break loop
		default:
		}

		now := time.Now()
		dt := now.Sub(lastFrame).Seconds()
		lastFrame = now
		if dt > 0.1 {
			dt = 0.1
		}

		rotation.ApplyImpulse(inputTorque.pitch*dt, inputTorque.yaw*dt, inputTorque.roll*dt)
		inputTorque.pitch *= 0.9
		inputTorque.yaw *= 0.9
		inputTorque.roll *= 0.9
		rotation.Update()

		fb.Clear(render.RGB(bgR, bgG, bgB))
		rasterizer.ClearDepth()
		rasterizer.DrawMeshTexturedGouraud(mesh, rotation.Transform(), texture, lightDir, previewTint)
		wireframe.DrawGrid(4, 0.5, render.RGB(70, 70, 90))
		wireframe.DrawAxes(1.2)

		termRenderer.Render(fb)
		if err := termRenderer.Flush(); err != nil {
			return false, fmt.Errorf("flush: %w", err)
		}

		elapsed := time.Since(now)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}

	if quit || !entered {
		return false, nil
	}

	mesh.Transform(rotation.Transform())
	camera.SetPosition(math3d.V3(0, 0, cameraZ))
	return true, nil
}
