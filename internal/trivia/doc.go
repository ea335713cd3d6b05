// Package trivia turns stored lyric chunks into multiple-choice quizzes.
//
// # Pipeline
//
// [Orchestrator.GenerateBatch] picks random anchor chunks from a full snapshot of the
// lyrics store. The first 80% of slots (by truncating integer arithmetic) are Normal,
// the rest Hard. Hard slots ask the [Miner] for semantically close distractors from other
// songs; the [Synthesizer] then prompts the [Generator] and validates the result.
//
// A question the model gets wrong (unparseable, wrong option count, answer not among the
// options) is dropped, so a batch may come back shorter than requested.
//
// # Playlists
//
// [QuizEngine.PrepareQuiz] samples a source playlist, ingests the sampled songs in parallel
// and generates a batch from whatever is in the store afterwards.
package trivia
