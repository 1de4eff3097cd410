package rewards

// Verification describes how an action is confirmed before posting.
type Verification string

// Supported verification paths. Manual actions post immediately;
// webhook-verified actions enter the ledger as pending.
const (
	VerifyManual  Verification = "manual"
	VerifyWebhook Verification = "webhook"
)

// Rule describes an awardable action.
type Rule struct {
	Action        string
	Points        int64
	MaxPerUser    int
	CooldownHours int
	Verification  Verification
}

// Actions awarded by the storefront.
const (
	ActionAccountCreate    = "account_create_join_email"
	ActionFollowTikTok     = "social_follow_tiktok"
	ActionFollowInstagram  = "social_follow_instagram"
	ActionFollowFacebook   = "social_follow_facebook"
	ActionShareStore       = "share_store_social"
	ActionSubscribeYouTube = "social_subscribe_youtube"
	ActionOrderPoints      = "order_points"
	ActionOrderRedeem      = "order_redeem"
)

// DefaultRules returns the built-in catalog of supported actions.
func DefaultRules() map[string]Rule {
	rules := []Rule{
		{Action: ActionAccountCreate, Points: 125, MaxPerUser: 1, Verification: VerifyManual},
		{Action: ActionFollowTikTok, Points: 25, MaxPerUser: 1, Verification: VerifyManual},
		{Action: ActionFollowInstagram, Points: 25, MaxPerUser: 1, Verification: VerifyManual},
		{Action: ActionFollowFacebook, Points: 25, MaxPerUser: 1, Verification: VerifyManual},
		{Action: ActionShareStore, Points: 50, MaxPerUser: 1, Verification: VerifyManual},
		{Action: ActionSubscribeYouTube, Points: 50, MaxPerUser: 1, Verification: VerifyManual},
	}
	out := make(map[string]Rule, len(rules))
	for _, r := range rules {
		out[r.Action] = r
	}
	return out
}
