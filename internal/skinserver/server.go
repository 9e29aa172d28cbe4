// Package skinserver serves player skins with an overlay image composited
// on top, so clients can load a decorated skin from a plain URL.
package skinserver

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/image/draw"

	"github.com/Faultbox/ccmodels/internal/logger"
	"github.com/Faultbox/ccmodels/internal/skin"
)

// Server merges skins fetched through a skin.Fetcher with an overlay.
type Server struct {
	fetcher skin.Fetcher
	overlay image.Image
	ip      *PublicIP
	router  *mux.Router
}

// New creates a server. A nil overlay serves skins unchanged; a nil ip
// disables SkinURL.
func New(fetcher skin.Fetcher, overlay image.Image, ip *PublicIP) *Server {
	s := &Server{fetcher: fetcher, overlay: overlay, ip: ip}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleSkin).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	s.router = r
	return s
}

// LoadOverlay reads a PNG overlay from disk. An empty path means no overlay.
func LoadOverlay(path string) (image.Image, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening overlay %s", path)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding overlay %s", path)
	}
	return img, nil
}

// Handler returns the router wrapped with panic recovery and access logging.
func (s *Server) Handler() http.Handler {
	h := handlers.LoggingHandler(logger.Writer("skinserver", zapcore.DebugLevel), s.router)
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}))(h)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", addr)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("skin server listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// SkinURL returns the public URL at which the merged skin can be fetched.
// port is the externally reachable port of this server.
func (s *Server) SkinURL(ctx context.Context, port int, skinName string) (string, error) {
	if s.ip == nil {
		return "", errors.New("public IP discovery not configured")
	}
	ip, err := s.ip.Get(ctx)
	if err != nil {
		return "", err
	}
	return SkinURL(ip, port, skinName), nil
}

// SkinURL builds the URL of skinName on a server at host:port.
func SkinURL(host string, port int, skinName string) string {
	u := url.URL{
		Scheme:   "http",
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/",
		RawQuery: url.QueryEscape(skinName),
	}
	return u.String()
}

func (s *Server) handleSkin(w http.ResponseWriter, r *http.Request) {
	name, err := url.QueryUnescape(r.URL.RawQuery)
	if err != nil || name == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	data, err := s.render(r.Context(), name)
	if errors.Is(err, skin.ErrAbsoluteURL) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Warn("skin render failed", zap.String("skin", name), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Write(data)
}

func (s *Server) render(ctx context.Context, name string) ([]byte, error) {
	raw, err := s.fetcher.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	base, err := skin.Decode(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "skin %s", name)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, Merge(base, s.overlay)); err != nil {
		return nil, errors.Wrapf(err, "encoding skin %s", name)
	}
	return buf.Bytes(), nil
}

// Merge draws overlay over base, scaled to base's size.
func Merge(base, overlay image.Image) image.Image {
	b := base.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), base, b.Min, draw.Src)
	if overlay != nil {
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), overlay, overlay.Bounds(), draw.Over, nil)
	}
	return dst
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...any) {
	logger.Error("skin server panic", zap.Any("panic", v))
}
