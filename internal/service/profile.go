package service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/target/foodorder-ui/internal/domain/model"
	apperrors "github.com/target/foodorder-ui/internal/errors"
	"github.com/target/foodorder-ui/internal/ports"
)

// API path and operation names for the current user's profile.
const (
	ProfilePath = "/api/my/user"

	OpFetchUser  = "Failed to fetch user"
	OpCreateUser = "Failed to create user"
	OpUpdateUser = "Failed to update user"

	MsgProfileUpdated = "user profile updated!"
)

// ProfileServiceOptions groups dependencies for ProfileService.
type ProfileServiceOptions struct {
	Client ports.APIClient // Required
	Logger *slog.Logger    // Optional
}

// ProfileService builds the profile resource hooks for a request.
type ProfileService struct {
	client ports.APIClient
	logger *slog.Logger
}

// NewProfileService constructs a ProfileService.
func NewProfileService(opts ProfileServiceOptions) *ProfileService {
	if opts.Client == nil {
		panic("service: ProfileService requires an API client")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{client: opts.Client, logger: logger.With("component", "profile")}
}

// ProfileHooks are the three profile flows bound to one session's token
// source and one notifier.
type ProfileHooks struct {
	Fetch  *Query[model.UserProfile]
	Create *Mutation[model.CreateUserRequest, struct{}]
	Update *Mutation[model.UpdateUserRequest, model.UserProfile]
}

// Hooks binds the profile flows to tokens and notify. notify may be nil.
func (s *ProfileService) Hooks(tokens ports.TokenSource, notify ports.Notifier) *ProfileHooks {
	notifyErr := func(op string) func(error) {
		return func(err error) {
			s.logger.Warn("profile request failed", "operation", op, "error", err)
			if notify != nil {
				notify.Error(apperrors.UserMessage(err, op))
			}
		}
	}

	return &ProfileHooks{
		Fetch: NewQuery(QueryOptions[model.UserProfile]{
			Fetch: func(ctx context.Context) (model.UserProfile, error) {
				var p model.UserProfile
				err := s.client.Do(ctx, tokens, ports.APIRequest{
					Operation: OpFetchUser,
					Method:    http.MethodGet,
					Path:      ProfilePath,
				}, &p)
				if err != nil {
					return model.UserProfile{}, normalize(OpFetchUser, err)
				}
				return p, nil
			},
			OnError: notifyErr(OpFetchUser),
		}),
		Create: NewMutation(MutationOptions[model.CreateUserRequest, struct{}]{
			Do: func(ctx context.Context, in model.CreateUserRequest) (struct{}, error) {
				err := s.client.Do(ctx, tokens, ports.APIRequest{
					Operation: OpCreateUser,
					Method:    http.MethodPost,
					Path:      ProfilePath,
					Body:      in,
				}, nil)
				return struct{}{}, normalize(OpCreateUser, err)
			},
			OnError: notifyErr(OpCreateUser),
		}),
		Update: NewMutation(MutationOptions[model.UpdateUserRequest, model.UserProfile]{
			Do: func(ctx context.Context, in model.UpdateUserRequest) (model.UserProfile, error) {
				var p model.UserProfile
				err := s.client.Do(ctx, tokens, ports.APIRequest{
					Operation: OpUpdateUser,
					Method:    http.MethodPut,
					Path:      ProfilePath,
					Body:      in,
				}, &p)
				if err != nil {
					return model.UserProfile{}, normalize(OpUpdateUser, err)
				}
				return p, nil
			},
			OnSuccess: func(model.UserProfile) {
				if notify != nil {
					notify.Success(MsgProfileUpdated)
				}
			},
			OnError:      notifyErr(OpUpdateUser),
			ResetOnError: true,
		}),
	}
}

// FetchProfile runs the fetch hook.
func (h *ProfileHooks) FetchProfile(ctx context.Context) (model.UserProfile, error) {
	return h.Fetch.Run(ctx)
}

// CreateProfile runs the create hook. Callers prevent duplicate invocations.
func (h *ProfileHooks) CreateProfile(ctx context.Context, in model.CreateUserRequest) error {
	_, err := h.Create.Mutate(ctx, in)
	return err
}

// UpdateProfile runs the update hook and returns the server echo. The
// profile is not refetched afterwards.
func (h *ProfileHooks) UpdateProfile(ctx context.Context, in model.UpdateUserRequest) (model.UserProfile, error) {
	return h.Update.Mutate(ctx, in)
}

// Close detaches all three hooks.
func (h *ProfileHooks) Close() {
	h.Fetch.Close()
	h.Create.Close()
	h.Update.Close()
}

// normalize keeps the API error as is when it is already classified and
// folds anything else into RequestFailed for op.
func normalize(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsRequestFailed(err) || apperrors.IsAuthUnavailable(err) {
		return err
	}
	return apperrors.RequestFailedCause(op, err)
}
