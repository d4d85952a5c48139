package passphrase

// DefaultWordList is a small built-in pool of short, easily typed words,
// used when no word list file is supplied.
var DefaultWordList = []string{
	"acorn", "amber", "anchor", "apple", "aspen", "autumn", "badge", "bamboo",
	"basil", "beacon", "birch", "bison", "blossom", "breeze", "bridge", "brook",
	"cabin", "canyon", "cedar", "cherry", "cliff", "clover", "cobalt", "comet",
	"copper", "coral", "cosmos", "crane", "cricket", "crystal", "daisy", "dawn",
	"delta", "dune", "eagle", "ember", "falcon", "fern", "field", "flint",
	"forest", "fossil", "garnet", "glacier", "grove", "harbor", "hazel", "heron",
	"hollow", "indigo", "island", "ivory", "jasper", "juniper", "lagoon", "lantern",
	"lark", "lichen", "lily", "lotus", "lunar", "maple", "marble", "meadow",
	"mesa", "mist", "moss", "nettle", "north", "oasis", "ocean", "olive",
	"onyx", "orchid", "osprey", "otter", "pebble", "pine", "plume", "prairie",
	"quartz", "raven", "reef", "ridge", "river", "robin", "rowan", "saffron",
	"sage", "sierra", "spruce", "summit", "sunset", "thistle", "timber", "topaz",
	"trail", "tundra", "violet", "walnut", "willow", "winter", "wren", "zephyr",
}
