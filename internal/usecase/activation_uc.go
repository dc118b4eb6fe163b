// File: internal/usecase/activation_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"edu-content-subscription/internal/domain"
	"edu-content-subscription/internal/domain/model"
	"edu-content-subscription/internal/domain/ports/repository"
	"edu-content-subscription/internal/infra/i18n"
	"edu-content-subscription/internal/infra/metrics"
)

// CodeValidation is the structured verdict handed to the front end. Rejections
// are values, not errors: only storage failures surface through the error path.
type CodeValidation struct {
	Valid                 bool
	RequiresSubjectChoice bool
	Reason                error // sentinel domain error, nil when valid
	Message               string
	Code                  *model.ActivationCode
}

// RedeemRequest carries everything the commit needs. ChosenSubject* are only
// set when the validated code deferred the subject choice to redemption.
type RedeemRequest struct {
	UserID            string
	Email             string
	CodeID            string
	ChosenSubjectID   string
	ChosenSubjectName string
}

type RedeemResult struct {
	PlanName string
	EndDate  time.Time
}

// ActivationUseCase implements the code validator and the redemption
// coordinator. It is the only writer of code, profile, and log state.
type ActivationUseCase struct {
	codes    repository.ActivationCodeRepository
	profiles repository.ProfileRepository
	logs     repository.ActivationLogRepository
	tm       repository.TransactionManager
	tr       *i18n.Translator
	log      *zerolog.Logger

	now func() time.Time // overridable in tests
}

func NewActivationUseCase(
	codes repository.ActivationCodeRepository,
	profiles repository.ProfileRepository,
	logs repository.ActivationLogRepository,
	tm repository.TransactionManager,
	tr *i18n.Translator,
	logger *zerolog.Logger,
) *ActivationUseCase {
	ucLog := logger.With().Str("component", "ActivationUC").Logger()
	return &ActivationUseCase{
		codes:    codes,
		profiles: profiles,
		logs:     logs,
		tm:       tm,
		tr:       tr,
		log:      &ucLog,
		now:      time.Now,
	}
}

// ValidateCode checks a raw code string against the store at the current
// instant. It never mutates anything; the commit re-runs the same rules, so
// this result is advisory and must not be treated as a reservation.
func (uc *ActivationUseCase) ValidateCode(ctx context.Context, raw string) (*CodeValidation, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uc.reject(domain.ErrEmptyCode), nil
	}

	code, err := uc.codes.FindByCode(ctx, repository.NoTX, raw)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return uc.reject(domain.ErrCodeNotFound), nil
		}
		return nil, err
	}

	if verdict := code.VerdictAt(uc.now()); verdict != nil {
		return uc.rejectCode(verdict, code), nil
	}

	metrics.IncCodeValidation("ok")
	return &CodeValidation{
		Valid:                 true,
		RequiresSubjectChoice: code.RequiresSubjectChoice(),
		Code:                  code,
	}, nil
}

// Redeem transitions exactly one code into "used" state, granting the
// entitlement to exactly one user. The whole commit runs in one transaction:
// the conditional mark-used update, the profile snapshot upsert, and the log
// append either all land or none do. The earlier ValidateCode result is never
// trusted; the rules re-run here against the live row.
func (uc *ActivationUseCase) Redeem(ctx context.Context, req RedeemRequest) (*RedeemResult, error) {
	if req.UserID == "" {
		metrics.IncActivation("rejected")
		return nil, domain.ErrMissingUserIdentity
	}

	start := time.Now()
	var res *RedeemResult
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		code, err := uc.codes.FindByID(ctx, tx, req.CodeID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrCodeNotFound
			}
			return err
		}

		now := uc.now()
		if verdict := code.VerdictAt(now); verdict != nil {
			return verdict
		}
		if code.RequiresSubjectChoice() && req.ChosenSubjectID == "" {
			return domain.ErrSubjectChoiceRequired
		}

		// Single-slot snapshot: refuse to overwrite an unexpired entitlement.
		if prof, err := uc.profiles.FindByID(ctx, tx, req.UserID); err == nil {
			if s := prof.Subscription; s != nil && s.Status == model.SubscriptionStatusActive && !now.After(s.EndDate) {
				return domain.ErrSubscriptionStillActive
			}
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		subjectID, subjectName := finalSubject(code, req)
		planName := uc.planName(code, subjectName)

		// The race guard: losers of a concurrent redemption match zero rows
		// here and the whole transaction aborts before any other write.
		if err := uc.codes.MarkUsed(ctx, tx, code.ID, req.UserID, subjectID, now); err != nil {
			return err
		}

		sub, err := model.NewSubscription(code.PlanID(), planName, now, code.ValidUntil, code.ID, subjectID, subjectName)
		if err != nil {
			return err
		}
		if err := uc.profiles.UpsertSubscription(ctx, tx, req.UserID, req.Email, sub); err != nil {
			return err
		}
		if err := uc.logs.Append(ctx, tx, model.NewActivationLogEntry(req.UserID, code.ID, subjectID, planName, now)); err != nil {
			return err
		}

		res = &RedeemResult{PlanName: planName, EndDate: code.ValidUntil}
		return nil
	})
	if err != nil {
		if isRejection(err) {
			metrics.IncActivation("rejected")
			return nil, err
		}
		// Storage failure mid-commit: the transaction rolled back, but log the
		// raw cause loudly before normalizing it for the caller.
		metrics.IncActivation("error")
		uc.log.Error().Err(err).
			Str("code_id", req.CodeID).
			Str("user_id", req.UserID).
			Msg("redemption commit failed")
		return nil, domain.ErrOperationFailed
	}

	metrics.IncActivation("success")
	metrics.ObserveRedemptionDuration(time.Since(start).Seconds())
	uc.log.Info().
		Str("code_id", req.CodeID).
		Str("user_id", req.UserID).
		Str("plan_name", res.PlanName).
		Time("end_date", res.EndDate).
		Msg("code redeemed")
	return res, nil
}

// RejectionMessage renders the user-facing Arabic message for a redemption
// rejection. Unknown errors get the generic commit-failure message.
func (uc *ActivationUseCase) RejectionMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyCode):
		return uc.tr.T("code.empty")
	case errors.Is(err, domain.ErrCodeNotFound):
		return uc.tr.T("code.not_found")
	case errors.Is(err, domain.ErrCodeInactive):
		return uc.tr.T("code.inactive")
	case errors.Is(err, domain.ErrCodeAlreadyUsed):
		return uc.tr.T("code.already_used")
	case errors.Is(err, domain.ErrCodeExpired):
		return uc.tr.T("code.expired")
	case errors.Is(err, domain.ErrSubjectChoiceRequired):
		return uc.tr.T("redeem.subject_required")
	case errors.Is(err, domain.ErrMissingUserIdentity):
		return uc.tr.T("redeem.missing_identity")
	case errors.Is(err, domain.ErrSubscriptionStillActive):
		return uc.tr.T("redeem.already_subscribed")
	default:
		return uc.tr.T("redeem.failed")
	}
}

// SuccessMessage renders the activation confirmation for the front end.
func (uc *ActivationUseCase) SuccessMessage(res *RedeemResult) string {
	return uc.tr.T("redeem.success", res.PlanName)
}

// History lists a user's past activations, newest first.
func (uc *ActivationUseCase) History(ctx context.Context, userID string, limit int) ([]*model.ActivationLogEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return uc.logs.ListByUser(ctx, repository.NoTX, userID, limit)
}

func (uc *ActivationUseCase) reject(reason error) *CodeValidation {
	metrics.IncCodeValidation(verdictLabel(reason))
	return &CodeValidation{Reason: reason, Message: uc.RejectionMessage(reason)}
}

func (uc *ActivationUseCase) rejectCode(reason error, code *model.ActivationCode) *CodeValidation {
	metrics.IncCodeValidation(verdictLabel(reason))
	msg := uc.RejectionMessage(reason)
	if errors.Is(reason, domain.ErrCodeNotYetValid) {
		msg = uc.tr.T("code.not_yet_valid", code.ValidFrom.Format("2006-01-02"))
	}
	return &CodeValidation{Reason: reason, Message: msg, Code: code}
}

// finalSubject resolves the subject the entitlement binds to:
// chosen subject first, then the code's pre-bound subject, else platform-wide.
func finalSubject(code *model.ActivationCode, req RedeemRequest) (*string, *string) {
	if req.ChosenSubjectID != "" {
		id := req.ChosenSubjectID
		var name *string
		if req.ChosenSubjectName != "" {
			n := req.ChosenSubjectName
			name = &n
		}
		return &id, name
	}
	if code.SubjectID != nil {
		return code.SubjectID, code.SubjectName
	}
	return nil, nil
}

// planName derivation precedence: subject name (chosen or pre-bound) wins,
// otherwise the humanized plan token.
func (uc *ActivationUseCase) planName(code *model.ActivationCode, subjectName *string) string {
	if subjectName != nil && *subjectName != "" {
		return uc.tr.T("plan.single_subject", *subjectName)
	}
	return uc.tr.T("plan." + code.PlanID())
}

func isRejection(err error) bool {
	for _, sentinel := range []error{
		domain.ErrEmptyCode,
		domain.ErrCodeNotFound,
		domain.ErrCodeInactive,
		domain.ErrCodeAlreadyUsed,
		domain.ErrCodeNotYetValid,
		domain.ErrCodeExpired,
		domain.ErrSubjectChoiceRequired,
		domain.ErrMissingUserIdentity,
		domain.ErrSubscriptionStillActive,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func verdictLabel(reason error) string {
	switch {
	case reason == nil:
		return "ok"
	case errors.Is(reason, domain.ErrEmptyCode):
		return "empty"
	case errors.Is(reason, domain.ErrCodeNotFound):
		return "not_found"
	case errors.Is(reason, domain.ErrCodeInactive):
		return "inactive"
	case errors.Is(reason, domain.ErrCodeAlreadyUsed):
		return "already_used"
	case errors.Is(reason, domain.ErrCodeNotYetValid):
		return "not_yet_valid"
	case errors.Is(reason, domain.ErrCodeExpired):
		return "expired"
	default:
		return "error"
	}
}
