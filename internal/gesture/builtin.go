package gesture

// Builtin returns the process-wide default catalog. It is constructed once at
// package init from the built-in table and shared by every caller.
func Builtin() *Catalog { return builtin }

var builtin = mustNew(builtinRecords)

func mustNew(records []Gesture) *Catalog {
	c, err := New(records)
	if err != nil {
		panic(err)
	}
	return c
}

// builtinRecords is the authored gesture table. Registration order within a
// category is the order returned by [Catalog.ByCategory].
var builtinRecords = []Gesture{
	// thinking
	{ID: "chin_stroke", Name: "Chin Stroke", Category: CategoryThinking,
		Description: "Slowly strokes the chin while weighing an idea.",
		Animation:   "anim.think.chin_stroke", Intensity: IntensitySubtle},
	{ID: "gaze_upward", Name: "Upward Gaze", Category: CategoryThinking,
		Description: "Eyes drift up and to the side, searching for a memory.",
		Animation:   "anim.think.gaze_up", Intensity: IntensitySubtle},
	{ID: "temple_tap", Name: "Temple Tap", Category: CategoryThinking,
		Description: "Taps a finger against the temple while working something out.",
		Animation:   "anim.think.temple_tap", Intensity: IntensityModerate},

	// agreeing
	{ID: "slow_nod", Name: "Slow Nod", Category: CategoryAgreeing,
		Description: "A measured nod of genuine agreement.",
		Animation:   "anim.agree.nod_slow", Intensity: IntensitySubtle},
	{ID: "double_nod", Name: "Double Nod", Category: CategoryAgreeing,
		Description: "Two quick nods, eager and affirming.",
		Animation:   "anim.agree.nod_double", Intensity: IntensityModerate},
	{ID: "open_palms", Name: "Open Palms", Category: CategoryAgreeing,
		Description: "Palms turn upward in open acceptance of the point.",
		Animation:   "anim.agree.open_palms", Intensity: IntensityModerate},

	// disagreeing
	{ID: "head_shake", Name: "Head Shake", Category: CategoryDisagreeing,
		Description: "A firm side-to-side shake of the head.",
		Animation:   "anim.disagree.head_shake", Intensity: IntensityModerate},
	{ID: "crossed_arms", Name: "Crossed Arms", Category: CategoryDisagreeing,
		Description: "Arms fold across the chest, closing off.",
		Animation:   "anim.disagree.arms_cross", Intensity: IntensityStrong},
	{ID: "finger_wag", Name: "Finger Wag", Category: CategoryDisagreeing,
		Description: "Wags an index finger in gentle correction.",
		Animation:   "anim.disagree.finger_wag", Intensity: IntensityModerate},

	// questioning
	{ID: "head_tilt", Name: "Head Tilt", Category: CategoryQuestioning,
		Description: "Head tilts to one side in open curiosity.",
		Animation:   "anim.question.head_tilt", Intensity: IntensitySubtle},
	{ID: "raised_brow", Name: "Raised Eyebrow", Category: CategoryQuestioning,
		Description: "A single eyebrow arches, inviting an explanation.",
		Animation:   "anim.question.brow_raise", Intensity: IntensitySubtle},
	{ID: "palm_up_query", Name: "Open-Palm Query", Category: CategoryQuestioning,
		Description: "One hand extends palm-up, offering the question.",
		Animation:   "anim.question.palm_up", Intensity: IntensityModerate},

	// emphasizing
	{ID: "fist_punctuate", Name: "Fist Punctuation", Category: CategoryEmphasizing,
		Description: "A loose fist drops into the other palm on the key word.",
		Animation:   "anim.emph.fist_palm", Intensity: IntensityStrong},
	{ID: "forward_lean", Name: "Forward Lean", Category: CategoryEmphasizing,
		Description: "Leans in to press the point home.",
		Animation:   "anim.emph.lean_in", Intensity: IntensityModerate},
	{ID: "spread_hands", Name: "Spread Hands", Category: CategoryEmphasizing,
		Description: "Hands sweep apart to frame the scale of the claim.",
		Animation:   "anim.emph.spread", Intensity: IntensityStrong},

	// listening
	{ID: "attentive_still", Name: "Attentive Stillness", Category: CategoryListening,
		Description: "Settles into stillness, fully focused on the speaker.",
		Animation:   "anim.listen.still", Intensity: IntensitySubtle},
	{ID: "encouraging_nod", Name: "Encouraging Nod", Category: CategoryListening,
		Description: "Small periodic nods that keep the speaker going.",
		Animation:   "anim.listen.nod", Intensity: IntensitySubtle},
	{ID: "ear_turn", Name: "Ear Turn", Category: CategoryListening,
		Description: "Turns an ear slightly toward the speaker.",
		Animation:   "anim.listen.ear_turn", Intensity: IntensitySubtle},

	// reacting
	{ID: "surprised_recoil", Name: "Surprised Recoil", Category: CategoryReacting,
		Description: "Pulls back sharply, eyes widening.",
		Animation:   "anim.react.recoil", Intensity: IntensityStrong},
	{ID: "soft_gasp", Name: "Soft Gasp", Category: CategoryReacting,
		Description: "A small intake of breath, hand rising toward the mouth.",
		Animation:   "anim.react.gasp", Intensity: IntensityModerate},
	{ID: "amused_smirk", Name: "Amused Smirk", Category: CategoryReacting,
		Description: "One corner of the mouth curls upward.",
		Animation:   "anim.react.smirk", Intensity: IntensitySubtle},

	// interrupting
	{ID: "raised_hand", Name: "Raised Hand", Category: CategoryInterrupting,
		Description: "A hand comes up to claim the floor.",
		Animation:   "anim.interrupt.hand_up", Intensity: IntensityModerate},
	{ID: "sharp_inhale", Name: "Sharp Inhale", Category: CategoryInterrupting,
		Description: "An audible breath that signals a coming objection.",
		Animation:   "anim.interrupt.inhale", Intensity: IntensitySubtle},

	// concluding
	{ID: "hands_settle", Name: "Settling Hands", Category: CategoryConcluding,
		Description: "Hands come to rest, drawing the thought to a close.",
		Animation:   "anim.conclude.settle", Intensity: IntensitySubtle},
	{ID: "final_nod", Name: "Final Nod", Category: CategoryConcluding,
		Description: "One decisive nod that ends the matter.",
		Animation:   "anim.conclude.nod", Intensity: IntensityModerate},
	{ID: "step_back", Name: "Step Back", Category: CategoryConcluding,
		Description: "A small step backward, ceding the floor.",
		Animation:   "anim.conclude.step_back", Intensity: IntensityModerate},

	// neutral
	{ID: "relaxed_idle", Name: "Relaxed Idle", Category: CategoryNeutral,
		Description: "Default relaxed stance with natural weight shifts.",
		Animation:   "anim.neutral.idle", Intensity: IntensitySubtle},
	{ID: "casual_shrug", Name: "Casual Shrug", Category: CategoryNeutral,
		Description: "A light, noncommittal shrug.",
		Animation:   "anim.neutral.shrug", Intensity: IntensitySubtle},
	{ID: "weight_shift", Name: "Weight Shift", Category: CategoryNeutral,
		Description: "Shifts weight from one foot to the other.",
		Animation:   "anim.neutral.weight_shift", Intensity: IntensitySubtle},
}
