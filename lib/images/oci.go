package images

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/remote/transport"
	"github.com/nyunai/nyun/lib/runtime"
)

// Inspector checks a remote manifest before an image is pulled.
type Inspector interface {
	// Inspect returns the manifest digest of ref in its registry.
	Inspect(ctx context.Context, ref *Ref) (string, error)
}

// RemoteInspector inspects manifests over the registry API without involving
// the container engine.
type RemoteInspector struct {
	nameOpts   []name.Option
	remoteOpts []remote.Option
}

var _ Inspector = (*RemoteInspector)(nil)

// InspectorOption configures a RemoteInspector.
type InspectorOption func(*RemoteInspector)

// WithAuth authenticates with explicit credentials instead of the local
// docker keychain.
func WithAuth(auth runtime.Auth) InspectorOption {
	return func(i *RemoteInspector) {
		if auth.Empty() {
			return
		}
		i.remoteOpts = append(i.remoteOpts, remote.WithAuth(authn.FromConfig(authn.AuthConfig{
			Username: auth.Username,
			Password: auth.Password,
		})))
	}
}

// WithInsecure allows plain HTTP registries.
func WithInsecure() InspectorOption {
	return func(i *RemoteInspector) {
		i.nameOpts = append(i.nameOpts, name.Insecure)
	}
}

// NewRemoteInspector creates an inspector. Without WithAuth it uses the
// default keychain (~/.docker/config.json and credential helpers).
func NewRemoteInspector(opts ...InspectorOption) *RemoteInspector {
	i := &RemoteInspector{}
	for _, opt := range opts {
		opt(i)
	}
	if len(i.remoteOpts) == 0 {
		i.remoteOpts = append(i.remoteOpts, remote.WithAuthFromKeychain(authn.DefaultKeychain))
	}
	return i
}

// Inspect issues a HEAD for the manifest of ref.
func (i *RemoteInspector) Inspect(ctx context.Context, ref *Ref) (string, error) {
	r, err := name.ParseReference(ref.Name(), i.nameOpts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidName, err)
	}

	opts := append([]remote.Option{remote.WithContext(ctx)}, i.remoteOpts...)
	desc, err := remote.Head(r, opts...)
	if err != nil {
		return "", classifyRemote(err)
	}
	return desc.Digest.String(), nil
}

// classifyRemote maps registry errors onto runtime.ErrAccessDenied. Docker Hub
// answers 401 for repositories that do not exist, so not-found and
// unauthorized are indistinguishable to the user.
func classifyRemote(err error) error {
	var terr *transport.Error
	if !errors.As(err, &terr) {
		return fmt.Errorf("inspect manifest: %w", err)
	}

	switch terr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return fmt.Errorf("%w: %v", runtime.ErrAccessDenied, err)
	}
	for _, d := range terr.Errors {
		switch d.Code {
		case transport.UnauthorizedErrorCode, transport.DeniedErrorCode,
			transport.NameUnknownErrorCode, transport.ManifestUnknownErrorCode:
			return fmt.Errorf("%w: %v", runtime.ErrAccessDenied, err)
		}
	}
	return fmt.Errorf("inspect manifest: %w", err)
}
