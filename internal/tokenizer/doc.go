// Package tokenizer turns text into token ids for token data sources.
//
// Two tokenizers are provided:
//   - TikToken: BPE encodings used by OpenAI models (cl100k_base, p50k_base),
//     backed by pkoukk/tiktoken-go. Loading an encoding may download its
//     ranks on first use.
//   - ByteLevel: one token per byte, vocabulary of 256. Needs no data files.
//
// Example usage:
//
//	tok, err := tokenizer.NewTikToken("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tokens, err := tok.Encode("Hello, world!")
package tokenizer
